// Package resource provides the uniform record decoded from every eAPI response section.
package resource

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MarkPrefix is prepended by the server to every resource mark.
const MarkPrefix = "_eapi_"

// Kind tags the response section a Resource came from.
type Kind int

const (
	Transaction Kind = iota + 1 // "_transactions" - completed server-side operation
	Error                       // "_errors" - server-reported failure for one operation
	Partial                     // "_partials" - incremental update
)

// Section returns the wire name of the response section holding this kind.
// Panics on invalid value.
func (k Kind) Section() string {
	switch k {
	case Transaction:
		return "_transactions"
	case Error:
		return "_errors"
	case Partial:
		return "_partials"
	default:
		panic(fmt.Sprintf("invalid resource.Kind: %d (must be Transaction/Error/Partial)", k))
	}
}

// String returns string representation.
func (k Kind) String() string {
	switch k {
	case Transaction:
		return "Transaction"
	case Error:
		return "Error"
	case Partial:
		return "Partial"
	default:
		return fmt.Sprintf("Invalid(%d)", int(k))
	}
}

// Kinds lists the response kinds in classification order.
var Kinds = []Kind{Transaction, Error, Partial}

// Resource is a single entry of a response section.
// Values are copied on every hand-off, so a Resource never changes after construction.
type Resource struct {
	Kind    Kind            `json:"-"`
	Mark    string          `json:"mark"`
	Source  *string         `json:"source"`
	Results json.RawMessage `json:"results"`
	Dataset json.RawMessage `json:"dataset"`
}

// New creates a Resource of the given kind.
func New(kind Kind, mark string, source *string, results, dataset json.RawMessage) Resource {
	return Resource{
		Kind:    kind,
		Mark:    mark,
		Source:  source,
		Results: results,
		Dataset: dataset,
	}
}

// Name returns the mark without MarkPrefix ("_eapi_reports_list" -> "reports_list").
func (r Resource) Name() string {
	return Unmark(r.Mark)
}

// SourceString returns the source descriptor, or "" when the server sent null.
func (r Resource) SourceString() string {
	if r.Source == nil {
		return ""
	}
	return *r.Source
}

// DecodeResults unmarshals the results value into v.
func (r Resource) DecodeResults(v any) error {
	return decode(r.Results, v)
}

// DecodeDataset unmarshals the dataset value into v.
func (r Resource) DecodeDataset(v any) error {
	return decode(r.Dataset, v)
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode resource value: %w", err)
	}
	return nil
}

// MarshalYAML renders Results and Dataset as plain values instead of raw bytes.
func (r Resource) MarshalYAML() (any, error) {
	var results, dataset any
	if err := r.DecodeResults(&results); err != nil {
		return nil, err
	}
	if err := r.DecodeDataset(&dataset); err != nil {
		return nil, err
	}
	return struct {
		Mark    string  `yaml:"mark"`
		Source  *string `yaml:"source"`
		Results any     `yaml:"results"`
		Dataset any     `yaml:"dataset"`
	}{r.Mark, r.Source, results, dataset}, nil
}

// Mark applies MarkPrefix to an unprefixed name ("account_credits" -> "_eapi_account_credits").
func Mark(name string) string {
	return MarkPrefix + name
}

// Unmark strips MarkPrefix if present.
func Unmark(mark string) string {
	return strings.TrimPrefix(mark, MarkPrefix)
}
