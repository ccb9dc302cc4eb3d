package endpoint

import (
	"fmt"
	"sort"

	"github.com/st-keller/eapi-client/apierr"
)

// Definition describes one known endpoint.
type Definition struct {
	Verb     Verb
	Resource string
	Action   string
	Required []string // parameter names that must be present
	Summary  string
}

// String returns "VERB segment1/segment2".
func (s Definition) String() string {
	return string(s.Verb) + " " + s.Resource + "/" + s.Action
}

// Table is a set of known endpoints. Invocations can be checked against it
// before they leave the process.
type Table struct {
	defs map[string]Definition
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{defs: make(map[string]Definition)}
}

// Define adds an endpoint. Duplicates and malformed entries are rejected.
func (t *Table) Define(def Definition) error {
	inv := Invocation{Verb: def.Verb, Resource: def.Resource, Action: def.Action}
	if err := inv.Validate(); err != nil {
		return fmt.Errorf("invalid endpoint %s: %w", def, err)
	}

	key := def.String()
	if _, exists := t.defs[key]; exists {
		return fmt.Errorf("endpoint %s already defined", key)
	}
	t.defs[key] = def
	return nil
}

// MustDefine is Define that panics on error, for package-level tables.
func (t *Table) MustDefine(def Definition) *Table {
	if err := t.Define(def); err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the definition for inv's verb and path.
func (t *Table) Lookup(inv Invocation) (Definition, bool) {
	def, ok := t.defs[inv.String()]
	return def, ok
}

// Check fails with InvalidInvocation when inv is unknown or misses a required parameter.
func (t *Table) Check(inv Invocation) error {
	def, ok := t.Lookup(inv)
	if !ok {
		return apierr.Errorf(apierr.KindInvalidInvocation, "endpoint.Check", "unknown endpoint %s", inv)
	}
	for _, name := range def.Required {
		if !inv.Params.Has(name) {
			return apierr.Errorf(apierr.KindInvalidInvocation, "endpoint.Check",
				"%s requires parameter %q", inv, name)
		}
	}
	return nil
}

// Definitions returns all endpoints sorted by path, then verb.
func (t *Table) Definitions() []Definition {
	defs := make([]Definition, 0, len(t.defs))
	for _, def := range t.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].Resource+"/"+defs[i].Action != defs[j].Resource+"/"+defs[j].Action {
			return defs[i].Resource+"/"+defs[i].Action < defs[j].Resource+"/"+defs[j].Action
		}
		return defs[i].Verb < defs[j].Verb
	})
	return defs
}

// Default returns the endpoints known to this client.
func Default() *Table {
	return NewTable().
		MustDefine(Definition{Verb: GET, Resource: "reports", Action: "list", Summary: "List reports, optionally ordered and limited"}).
		MustDefine(Definition{Verb: POST, Resource: "reports", Action: "create", Required: []string{"website"}, Summary: "Create a report or a report schedule"}).
		MustDefine(Definition{Verb: GET, Resource: "account", Action: "credits", Summary: "Remaining account credits"})
}
