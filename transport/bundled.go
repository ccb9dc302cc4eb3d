package transport

import (
	_ "embed"
	"slices"
)

// bundledAnchors are the public roots eAPI's certificate chains to. They are
// pinned when no other anchors are configured.
//
//go:embed trust.pem
var bundledAnchors []byte

// BundledAnchors returns a copy of the PEM bundle shipped with the package.
func BundledAnchors() []byte {
	return slices.Clone(bundledAnchors)
}
