package endpoint

import (
	"net/url"
	"strings"

	"github.com/st-keller/eapi-client/apierr"
)

// FormContentType is the content type of POST bodies.
const FormContentType = "application/x-www-form-urlencoded"

// Target holds the fixed parts of every request URL.
type Target struct {
	Server string // base URL, e.g. "https://socialcrawlytics.com/eapi"
	Format string // response format suffix, e.g. "json"
	Token  string
	Key    string
}

// Request is a resolved HTTP request, ready for the transport.
type Request struct {
	Method      string
	URL         string
	Body        string // empty for GET
	ContentType string // empty for GET
}

// Resolve builds the request URL (and body for POST) for inv.
func Resolve(target Target, inv Invocation) (Request, error) {
	if err := inv.Validate(); err != nil {
		return Request{}, err
	}
	if target.Server == "" || target.Format == "" {
		return Request{}, apierr.Errorf(apierr.KindConfiguration, "endpoint.Resolve", "server and format required")
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimRight(target.Server, "/"))
	sb.WriteByte('/')
	sb.WriteString(url.PathEscape(inv.Resource))
	sb.WriteByte('/')
	sb.WriteString(url.PathEscape(inv.Action))
	sb.WriteByte('.')
	sb.WriteString(url.PathEscape(target.Format))
	sb.WriteString("?token=")
	sb.WriteString(url.QueryEscape(target.Token))
	sb.WriteString("&key=")
	sb.WriteString(url.QueryEscape(target.Key))

	req := Request{Method: string(inv.Verb)}

	switch inv.Verb {
	case GET:
		if len(inv.Params) > 0 {
			sb.WriteByte('&')
			sb.WriteString(inv.Params.Encode())
		}
	case POST:
		req.Body = inv.Params.Encode()
		req.ContentType = FormContentType
	}

	req.URL = sb.String()
	return req, nil
}
