package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/st-keller/eapi-client/endpoint"
	"github.com/st-keller/eapi-client/logging"
	"github.com/st-keller/eapi-client/resource"
	"github.com/st-keller/eapi-client/response"
	"github.com/st-keller/eapi-client/stats"
)

const datasetWidth = 60

var callCmd = &cobra.Command{
	Use:   "call <invocation> [key=value...]",
	Short: "Invoke an eAPI endpoint",
	Long: `Invoke an endpoint by name. The name is verb_segment1_segment2;
parameters are sent in the order given.`,
	Example: `  eapi call get_account_credits
  eapi call get_reports_list records=10 orderColumn=total_shares orderDirection=desc
  eapi call post_reports_create website=http://bbc.co.uk/ websiteDepth=0 --output yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCall,
}

func init() {
	rootCmd.AddCommand(callCmd)

	callCmd.Flags().Bool("stats", false, "print call statistics after the response")
}

func runCall(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	params, err := parseParams(args[1:])
	if err != nil {
		return err
	}

	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	agg, err := client.Invoke(cmd.Context(), args[0], params)
	if err != nil {
		return fmt.Errorf("call failed: %w", err)
	}

	w := cmd.OutOrStdout()
	if format == formatTable {
		renderAggregate(w, agg)
	} else if err := writeStructured(w, format, agg); err != nil {
		return err
	}

	if showStats, _ := cmd.Flags().GetBool("stats"); showStats {
		if err := renderStats(w, format, client.Stats(), client.RecentLogs()); err != nil {
			return err
		}
	}

	if n := agg.HasErrors(); n > 0 {
		return fmt.Errorf("server reported %d error(s)", n)
	}
	return nil
}

// parseParams turns key=value arguments into ordered params.
func parseParams(args []string) (endpoint.Params, error) {
	var params endpoint.Params
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q (expected key=value)", arg)
		}
		params = params.Add(key, value)
	}
	return params, nil
}

func renderAggregate(w io.Writer, agg *response.Aggregate) {
	if agg.Len() == 0 {
		info(w, "No resources returned")
		return
	}

	sections := []struct {
		kind      resource.Kind
		resources []resource.Resource
		color     *color.Color
	}{
		{resource.Transaction, agg.Transactions(), successColor},
		{resource.Error, agg.Errors(), errorColor},
		{resource.Partial, agg.Partials(), warnColor},
	}

	for _, section := range sections {
		if len(section.resources) == 0 {
			continue
		}
		section.color.Fprintf(w, "%s (%d)\n", section.kind.Section(), len(section.resources))

		t := newTable("MARK", "SOURCE", "RESULTS", "DATASET")
		for _, res := range section.resources {
			t.addRow(res.Mark, res.SourceString(), compact(res.Results), truncate(compact(res.Dataset), datasetWidth))
		}
		t.render(w)
		fmt.Fprintln(w)
	}

	if n := agg.HasErrors(); n > 0 {
		warn(w, "%d server-reported error(s)", n)
		return
	}
	success(w, "%d transaction(s), %d partial(s)", len(agg.Transactions()), len(agg.Partials()))
}

func renderStats(w io.Writer, format string, snapshot []stats.EndpointStats, logs []logging.Entry) error {
	if format != formatTable {
		return writeStructured(w, format, map[string]any{"stats": snapshot, "recent_logs": logs})
	}

	t := newTable("ENDPOINT", "STATUS", "CALLS", "SUCCESS", "P50 MS", "P99 MS")
	for _, s := range snapshot {
		row := []string{
			s.Endpoint,
			s.Status,
			fmt.Sprintf("%d", s.TotalCalls),
			fmt.Sprintf("%.0f%%", s.SuccessRate*100),
			fmt.Sprintf("%d", s.Latency.P50),
			fmt.Sprintf("%d", s.Latency.P99),
		}
		switch s.Status {
		case stats.StatusHealthy:
			t.addRow(row...)
		case stats.StatusDegraded:
			t.addColoredRow(warnColor, row...)
		default:
			t.addColoredRow(errorColor, row...)
		}
	}
	t.render(w)

	for _, entry := range logs {
		warn(w, "%s %s", entry.Level, entry.Message)
	}
	return nil
}

// compact renders a raw JSON value on one line; absent values print as null.
func compact(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "null"
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
