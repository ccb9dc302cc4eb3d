package response

import (
	"encoding/json"
	"slices"

	"github.com/st-keller/eapi-client/resource"
)

// Aggregate is the classified content of one response: three ordered,
// disjoint sequences. It is populated once by Classify and read-only afterwards.
type Aggregate struct {
	transactions   []resource.Resource
	partials       []resource.Resource
	errors         []resource.Resource
	callbackErrors []error
}

func (a *Aggregate) add(res resource.Resource) {
	switch res.Kind {
	case resource.Transaction:
		a.transactions = append(a.transactions, res)
	case resource.Partial:
		a.partials = append(a.partials, res)
	case resource.Error:
		a.errors = append(a.errors, res)
	}
}

// Get returns copies of the three sequences.
func (a *Aggregate) Get() (transactions, partials, errors []resource.Resource) {
	return a.Transactions(), a.Partials(), a.Errors()
}

// Transactions returns the transactions in arrival order.
func (a *Aggregate) Transactions() []resource.Resource {
	return slices.Clone(a.transactions)
}

// Partials returns the partials in arrival order.
func (a *Aggregate) Partials() []resource.Resource {
	return slices.Clone(a.partials)
}

// Errors returns the server-reported errors in arrival order.
func (a *Aggregate) Errors() []resource.Resource {
	return slices.Clone(a.errors)
}

// HasErrors returns the number of server-reported errors; 0 means none.
func (a *Aggregate) HasErrors() int {
	return len(a.errors)
}

// Len returns the total number of resources.
func (a *Aggregate) Len() int {
	return len(a.transactions) + len(a.partials) + len(a.errors)
}

// ByMark returns every resource whose mark is MarkPrefix+name, in
// transaction, error, partial order.
func (a *Aggregate) ByMark(name string) []resource.Resource {
	mark := resource.Mark(name)
	var out []resource.Resource
	for _, section := range [][]resource.Resource{a.transactions, a.errors, a.partials} {
		for _, res := range section {
			if res.Mark == mark {
				out = append(out, res)
			}
		}
	}
	return out
}

// CallbackErrors returns the isolated handler failures raised while classifying.
func (a *Aggregate) CallbackErrors() []error {
	return slices.Clone(a.callbackErrors)
}

// MarshalJSON renders the aggregate in the wire shape it was decoded from.
func (a *Aggregate) MarshalJSON() ([]byte, error) {
	return json.Marshal(wire{
		Transactions: orEmpty(a.transactions),
		Errors:       orEmpty(a.errors),
		Partials:     orEmpty(a.partials),
	})
}

// MarshalYAML renders the aggregate with the same section names as the wire shape.
func (a *Aggregate) MarshalYAML() (any, error) {
	return wire{
		Transactions: orEmpty(a.transactions),
		Errors:       orEmpty(a.errors),
		Partials:     orEmpty(a.partials),
	}, nil
}

type wire struct {
	Transactions []resource.Resource `json:"_transactions" yaml:"_transactions"`
	Errors       []resource.Resource `json:"_errors" yaml:"_errors"`
	Partials     []resource.Resource `json:"_partials" yaml:"_partials"`
}

func orEmpty(in []resource.Resource) []resource.Resource {
	if in == nil {
		return []resource.Resource{}
	}
	return in
}
