// Package eapi provides the Go client library for the eAPI JSON-over-HTTP service.
//
// The library implements one request/response pipeline with four parts:
//  1. Endpoint Resolver - "verb_segment1_segment2" invocations to GET/POST requests
//  2. Transport Invoker - HTTP/2 over TLS pinned to bundled trust anchors
//  3. Response Classifier - _transactions/_errors/_partials into typed resources
//  4. Callback Registry - per-mark handlers fired while classifying
//
// Usage:
//
//	client, err := eapi.New(eapi.Config{Token: "demo", Key: "demo", CAPath: "/etc/eapi/ca.pem"})
//	client.Callback("account_credits", registry.Observe(func(r resource.Resource) { ... }))
//	agg, err := client.Invoke(ctx, "get_reports_list", endpoint.P("records", 10))
package eapi
