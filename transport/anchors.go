package transport

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"time"
)

// ExpiryWarningDays is the window in which an anchor is flagged as expiring.
const ExpiryWarningDays = 30

// AnchorInfo holds parsed metadata of one pinned trust anchor
type AnchorInfo struct {
	Subject         string    `json:"subject" yaml:"subject"`
	Issuer          string    `json:"issuer" yaml:"issuer"`
	ValidFrom       time.Time `json:"valid_from" yaml:"valid_from"`
	ValidUntil      time.Time `json:"valid_until" yaml:"valid_until"`
	DaysUntilExpiry int       `json:"days_until_expiry" yaml:"days_until_expiry"`
	IsCA            bool      `json:"is_ca" yaml:"is_ca"`
	IsExpired       bool      `json:"is_expired" yaml:"is_expired"`
	ExpiryWarning   bool      `json:"expiry_warning" yaml:"expiry_warning"` // true if < 30 days
}

// InspectAnchors parses every CERTIFICATE block of a PEM bundle.
func InspectAnchors(bundle []byte) ([]AnchorInfo, error) {
	return inspectAt(bundle, time.Now())
}

func inspectAt(bundle []byte, now time.Time) ([]AnchorInfo, error) {
	var infos []AnchorInfo
	rest := bundle
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse anchor %d: %w", len(infos), err)
		}

		daysUntilExpiry := int(cert.NotAfter.Sub(now).Hours() / 24)
		isExpired := now.After(cert.NotAfter)

		infos = append(infos, AnchorInfo{
			Subject:         cert.Subject.String(),
			Issuer:          cert.Issuer.String(),
			ValidFrom:       cert.NotBefore,
			ValidUntil:      cert.NotAfter,
			DaysUntilExpiry: daysUntilExpiry,
			IsCA:            cert.IsCA,
			IsExpired:       isExpired,
			ExpiryWarning:   daysUntilExpiry <= ExpiryWarningDays && !isExpired,
		})
	}

	if len(infos) == 0 {
		return nil, fmt.Errorf("no certificates found in trust anchor bundle")
	}
	return infos, nil
}

// Expiring returns anchors expired or expiring within withinDays.
func Expiring(infos []AnchorInfo, withinDays int) []AnchorInfo {
	var out []AnchorInfo
	for _, info := range infos {
		if info.IsExpired || info.DaysUntilExpiry <= withinDays {
			out = append(out, info)
		}
	}
	return out
}
