package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/st-keller/eapi-client/endpoint"
)

var endpointsCmd = &cobra.Command{
	Use:   "endpoints",
	Short: "List the known eAPI endpoints",
	Long:  "List the endpoints enforced when the config sets strict: true.",
	Args:  cobra.NoArgs,
	RunE:  runEndpoints,
}

func init() {
	rootCmd.AddCommand(endpointsCmd)
}

type endpointRow struct {
	Invocation string   `json:"invocation" yaml:"invocation"`
	Verb       string   `json:"verb" yaml:"verb"`
	Path       string   `json:"path" yaml:"path"`
	Required   []string `json:"required" yaml:"required"`
	Summary    string   `json:"summary" yaml:"summary"`
}

func endpointRows(table *endpoint.Table) []endpointRow {
	var rows []endpointRow
	for _, def := range table.Definitions() {
		inv := endpoint.Invocation{Verb: def.Verb, Resource: def.Resource, Action: def.Action}
		rows = append(rows, endpointRow{
			Invocation: strings.ToLower(string(def.Verb)) + "_" + inv.Name(),
			Verb:       string(def.Verb),
			Path:       inv.Path(),
			Required:   append([]string{}, def.Required...),
			Summary:    def.Summary,
		})
	}
	return rows
}

func runEndpoints(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	rows := endpointRows(endpoint.Default())
	w := cmd.OutOrStdout()
	if format != formatTable {
		return writeStructured(w, format, rows)
	}

	t := newTable("INVOCATION", "VERB", "PATH", "REQUIRED", "SUMMARY")
	for _, row := range rows {
		t.addRow(row.Invocation, row.Verb, row.Path, strings.Join(row.Required, ","), row.Summary)
	}
	t.render(w)
	return nil
}
