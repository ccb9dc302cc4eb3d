// Package endpoint resolves eAPI invocations into concrete HTTP requests.
//
// An invocation is named "verb_segment1_segment2" (e.g. "get_reports_list")
// and maps to
//
//	VERB {server}/{segment1}/{segment2}.{format}?token={token}&key={key}[&param=value]*
//
// GET carries the parameters in the query string, POST sends them as an
// application/x-www-form-urlencoded body.
package endpoint

import (
	"net/url"
	"sort"
	"strings"

	"github.com/st-keller/eapi-client/apierr"
)

// Verb is an HTTP method supported by the eAPI.
type Verb string

const (
	GET  Verb = "GET"
	POST Verb = "POST"
)

// ParseVerb matches a verb case-insensitively.
func ParseVerb(s string) (Verb, error) {
	switch strings.ToUpper(s) {
	case "GET":
		return GET, nil
	case "POST":
		return POST, nil
	default:
		return "", apierr.Errorf(apierr.KindInvalidInvocation, "endpoint.ParseVerb", "unsupported verb %q", s)
	}
}

// Invocation is one call against the eAPI, alive for the duration of that call.
type Invocation struct {
	Verb     Verb
	Resource string // first path segment, e.g. "reports"
	Action   string // second path segment, e.g. "list"
	Params   Params
}

// Get builds a GET invocation.
func Get(resource, action string, params Params) Invocation {
	return Invocation{Verb: GET, Resource: resource, Action: action, Params: params}
}

// Post builds a POST invocation.
func Post(resource, action string, params Params) Invocation {
	return Invocation{Verb: POST, Resource: resource, Action: action, Params: params}
}

// Parse splits an invocation name into verb and path segments.
// At least three underscore-separated tokens are required. Only the first three
// are used; any further tokens are ignored ("get_reports_list_extra" ->
// reports/list).
func Parse(name string, params Params) (Invocation, error) {
	tokens := strings.Split(name, "_")
	if len(tokens) < 3 {
		return Invocation{}, apierr.Errorf(apierr.KindInvalidInvocation, "endpoint.Parse",
			"invocation %q needs at least 3 underscore-separated tokens, got %d", name, len(tokens))
	}

	verb, err := ParseVerb(tokens[0])
	if err != nil {
		return Invocation{}, err
	}

	inv := Invocation{
		Verb:     verb,
		Resource: tokens[1],
		Action:   tokens[2],
		Params:   params,
	}
	if err := inv.Validate(); err != nil {
		return Invocation{}, err
	}
	return inv, nil
}

// Validate checks the verb and that both path segments are non-empty and path-safe.
func (i Invocation) Validate() error {
	if i.Verb != GET && i.Verb != POST {
		return apierr.Errorf(apierr.KindInvalidInvocation, "endpoint.Validate", "unsupported verb %q", i.Verb)
	}
	if i.Resource == "" || i.Action == "" {
		return apierr.Errorf(apierr.KindInvalidInvocation, "endpoint.Validate",
			"empty path segment in %q", i.Resource+"/"+i.Action)
	}
	for _, segment := range []string{i.Resource, i.Action} {
		if strings.ContainsAny(segment, "/?#.") || strings.HasSuffix(segment, "_") {
			return apierr.Errorf(apierr.KindInvalidInvocation, "endpoint.Validate",
				"invalid path segment %q", segment)
		}
	}
	return nil
}

// Name returns the unprefixed mark name of the invocation ("reports_list").
func (i Invocation) Name() string {
	return i.Resource + "_" + i.Action
}

// Path returns "segment1/segment2".
func (i Invocation) Path() string {
	return i.Resource + "/" + i.Action
}

// String returns "VERB segment1/segment2". It never contains credentials.
func (i Invocation) String() string {
	return string(i.Verb) + " " + i.Path()
}

func sortedKeys(values url.Values) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
