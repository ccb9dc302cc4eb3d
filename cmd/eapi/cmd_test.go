package main

import (
	"bytes"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/st-keller/eapi-client/endpoint"
	"github.com/st-keller/eapi-client/response"
)

// execute runs the root command with args and returns what it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true

	// Flags live on package-level commands; reset what earlier runs may have set.
	cfgFile = ""
	require.NoError(t, rootCmd.PersistentFlags().Set("output", formatTable))
	require.NoError(t, rootCmd.PersistentFlags().Set("log-level", "error"))
	require.NoError(t, callCmd.Flags().Set("stats", "false"))
	require.NoError(t, anchorsCmd.Flags().Set("ca-path", ""))

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

// eapiServer starts a pinned TLS server and points the EAPI_* environment at it.
func eapiServer(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()

	srv := httptest.NewUnstartedServer(handler)
	srv.EnableHTTP2 = true
	srv.StartTLS()
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	caPath := filepath.Join(dir, "ca.cert.pem")
	require.NoError(t, os.WriteFile(caPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw}), 0600))

	t.Setenv("EAPI_CONFIG_DIR", dir)
	t.Setenv("EAPI_TOKEN", "demo")
	t.Setenv("EAPI_KEY", "demo")
	t.Setenv("EAPI_SERVER", srv.URL+"/eapi")
	t.Setenv("EAPI_CA_PATH", caPath)
	return caPath
}

func TestCommandsRegistered(t *testing.T) {
	expected := map[string]bool{"call": false, "endpoints": false, "anchors": false, "config": false}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := expected[cmd.Name()]; ok {
			expected[cmd.Name()] = true
		}
	}
	for name, found := range expected {
		assert.True(t, found, "expected command %q to be registered", name)
	}

	var sub []string
	for _, cmd := range configCmd.Commands() {
		sub = append(sub, cmd.Name())
	}
	assert.ElementsMatch(t, []string{"init", "show"}, sub)
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"records=10", "orderColumn=total_shares", "website=http://bbc.co.uk/?a=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, endpoint.P(
		"records", "10",
		"orderColumn", "total_shares",
		"website", "http://bbc.co.uk/?a=b",
		"empty", "",
	), params)

	for _, bad := range []string{"records", "=10"} {
		_, err := parseParams([]string{bad})
		assert.Error(t, err, bad)
	}

	params, err = parseParams(nil)
	require.NoError(t, err)
	assert.Empty(t, params)
}

func TestCallCommandTable(t *testing.T) {
	eapiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/eapi/reports/list.json", r.URL.Path)
		assert.Equal(t, "token=demo&key=demo&records=10&orderColumn=total_shares", r.URL.RawQuery)
		w.Write([]byte(`{"_transactions":[{"mark":"_eapi_reports_list","source":null,"results":1,"dataset":[{"base_host":"bbc.co.uk"}]}]}`))
	})

	out, err := execute(t, "call", "get_reports_list", "records=10", "orderColumn=total_shares", "--stats")
	require.NoError(t, err)

	assert.Contains(t, out, "_transactions (1)")
	assert.Contains(t, out, "_eapi_reports_list")
	assert.Contains(t, out, `[{"base_host":"bbc.co.uk"}]`)
	assert.Contains(t, out, "1 transaction(s), 0 partial(s)")
	assert.Contains(t, out, "GET reports/list")
	assert.Contains(t, out, "healthy")
}

func TestCallCommandJSONAndYAML(t *testing.T) {
	eapiServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"_transactions":[{"mark":"_eapi_account_credits","source":null,"results":1,"dataset":98}]}`))
	})

	out, err := execute(t, "call", "get_account_credits", "--output", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"_transactions": [{"mark":"_eapi_account_credits","source":null,"results":1,"dataset":98}],
		"_errors": [],
		"_partials": []
	}`, out)

	out, err = execute(t, "call", "get_account_credits", "--output", "yaml")
	require.NoError(t, err)

	var decoded map[string][]map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded["_transactions"], 1)
	assert.Equal(t, 98, decoded["_transactions"][0]["dataset"])
}

func TestCallCommandServerErrors(t *testing.T) {
	eapiServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"_errors":[{"mark":"_eapi_reports_create","source":null,"results":0,"dataset":"website required"}]}`))
	})

	out, err := execute(t, "call", "post_reports_create")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server reported 1 error(s)")
	assert.Contains(t, out, "_errors (1)")
	assert.Contains(t, out, "website required")
}

func TestCallCommandInvalid(t *testing.T) {
	eapiServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server must not be called")
	})

	_, err := execute(t, "call", "reports_list")
	assert.Error(t, err)

	_, err = execute(t, "call", "get_reports_list", "records")
	assert.Error(t, err)

	_, err = execute(t, "call", "get_reports_list", "--output", "xml")
	assert.Error(t, err)
}

func TestEndpointsCommand(t *testing.T) {
	t.Setenv("EAPI_CONFIG_DIR", t.TempDir())

	out, err := execute(t, "endpoints", "--output", "json")
	require.NoError(t, err)

	var rows []endpointRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "get_account_credits", rows[0].Invocation)
	assert.Equal(t, "post_reports_create", rows[1].Invocation)
	assert.Equal(t, []string{"website"}, rows[1].Required)
	assert.Equal(t, "get_reports_list", rows[2].Invocation)

	out, err = execute(t, "endpoints")
	require.NoError(t, err)
	assert.Contains(t, out, "INVOCATION")
	assert.Contains(t, out, "reports/create")
}

func TestAnchorsCommand(t *testing.T) {
	caPath := eapiServer(t, func(w http.ResponseWriter, r *http.Request) {})

	out, err := execute(t, "anchors", "--output", "yaml")
	require.NoError(t, err)

	var infos []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, 1)
	assert.Contains(t, infos[0], "valid_until")

	out, err = execute(t, "anchors", "--ca-path", caPath)
	require.NoError(t, err)
	assert.Contains(t, out, "SUBJECT")

	_, err = execute(t, "anchors", "--ca-path", filepath.Join(t.TempDir(), "missing.pem"))
	assert.Error(t, err)
}

func TestAnchorsCommandBundled(t *testing.T) {
	t.Setenv("EAPI_CONFIG_DIR", t.TempDir())
	t.Setenv("EAPI_CA_PATH", "")

	out, err := execute(t, "anchors", "--output", "json")
	require.NoError(t, err)

	var infos []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, 4)
	assert.Contains(t, infos[0]["subject"], "ISRG Root X1")
}

func TestConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("EAPI_CONFIG_DIR", dir)

	out, err := execute(t, "config", "init", "--token", "t0k3n", "--key", "s3cr3t", "--ca-path", "/etc/eapi/ca.cert.pem")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "config.yaml"))

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "token: t0k3n")

	out, err = execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "****en")
	assert.Contains(t, out, "****3t")
	assert.False(t, strings.Contains(out, "t0k3n"))
}

func TestRenderAggregateEmpty(t *testing.T) {
	color.NoColor = true
	agg, err := response.Classify(nil, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	renderAggregate(&buf, agg)
	assert.Equal(t, "No resources returned\n", buf.String())
}

func TestTruncateAndMask(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "****", mask("ab"))
	assert.Equal(t, "****cd", mask("abcd"))
}
