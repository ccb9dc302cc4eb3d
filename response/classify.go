// Package response classifies eAPI response bodies into transactions,
// errors and partials.
//
// Wire shape:
//
//	{ "_transactions": [ {mark, source, results, dataset}, ... ],
//	  "_errors":       [ ... ],
//	  "_partials":     [ ... ] }
//
// Classification is two-phase: the whole body is decoded and bound first, so a
// malformed body never yields a partial aggregate; only then is every resource
// emitted to the sink and appended, section by section in arrival order.
package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/st-keller/eapi-client/apierr"
	"github.com/st-keller/eapi-client/resource"
)

const op = "response.Classify"

// Sink receives each classified resource before it is appended.
// A returned error is recorded on the aggregate; classification continues.
type Sink interface {
	Emit(res resource.Resource) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(res resource.Resource) error

// Emit calls f(res).
func (f SinkFunc) Emit(res resource.Resource) error {
	return f(res)
}

// entry is the wire form of one resource.
type entry struct {
	Mark    *string         `json:"mark"`
	Source  *string         `json:"source"`
	Results json.RawMessage `json:"results"`
	Dataset json.RawMessage `json:"dataset"`
}

// Classify decodes body and emits every resource to sink (which may be nil).
// An empty body yields an empty aggregate.
func Classify(body []byte, sink Sink) (*Aggregate, error) {
	agg := &Aggregate{}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return agg, nil
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal(body, &sections); err != nil {
		return nil, apierr.E(apierr.KindMalformedResponse, op, err)
	}
	if sections == nil {
		return nil, apierr.Errorf(apierr.KindMalformedResponse, op, "response is not a JSON object")
	}

	bound := make(map[resource.Kind][]resource.Resource, len(resource.Kinds))
	found := 0
	for _, kind := range resource.Kinds {
		raw, ok := sections[kind.Section()]
		if !ok {
			continue
		}
		found++

		resources, err := bindSection(kind, raw)
		if err != nil {
			return nil, err
		}
		bound[kind] = resources
	}
	if found == 0 {
		return nil, apierr.Errorf(apierr.KindMalformedResponse, op,
			"response has none of the _transactions, _errors, _partials sections")
	}

	for _, kind := range resource.Kinds {
		for _, res := range bound[kind] {
			if sink != nil {
				if err := sink.Emit(res); err != nil {
					agg.callbackErrors = append(agg.callbackErrors, flatten(res, err)...)
				}
			}
			agg.add(res)
		}
	}

	return agg, nil
}

// bindSection decodes one section array into resources of kind.
func bindSection(kind resource.Kind, raw json.RawMessage) ([]resource.Resource, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, apierr.E(apierr.KindMalformedResponse, op,
			fmt.Errorf("section %s is not an array: %w", kind.Section(), err))
	}

	resources := make([]resource.Resource, 0, len(items))
	for i, item := range items {
		res, err := bindEntry(kind, i, item)
		if err != nil {
			return nil, err
		}
		resources = append(resources, res)
	}
	return resources, nil
}

func bindEntry(kind resource.Kind, index int, item json.RawMessage) (resource.Resource, error) {
	where := fmt.Sprintf("%s[%d]", kind.Section(), index)

	trimmed := bytes.TrimSpace(item)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return resource.Resource{}, apierr.Errorf(apierr.KindBind, op, "%s is not an object", where)
	}

	var e entry
	if err := json.Unmarshal(trimmed, &e); err != nil {
		return resource.Resource{}, apierr.E(apierr.KindBind, op, fmt.Errorf("%s: %w", where, err))
	}
	if e.Mark == nil || *e.Mark == "" {
		return resource.Resource{}, apierr.Errorf(apierr.KindBind, op, "%s has no mark", where)
	}

	return resource.New(kind, *e.Mark, e.Source, e.Results, e.Dataset), nil
}

// flatten splits a joined sink error and makes sure every part is a CallbackError.
func flatten(res resource.Resource, err error) []error {
	var parts []error
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		parts = joined.Unwrap()
	} else {
		parts = []error{err}
	}

	out := make([]error, 0, len(parts))
	for _, part := range parts {
		if errors.Is(part, apierr.ErrCallback) {
			out = append(out, part)
			continue
		}
		out = append(out, &apierr.Error{Kind: apierr.KindCallback, Op: op, Mark: res.Mark, Err: part})
	}
	return out
}
