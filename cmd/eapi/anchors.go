package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/st-keller/eapi-client/transport"
)

var anchorsCmd = &cobra.Command{
	Use:   "anchors",
	Short: "Inspect the pinned CA bundle",
	Long:  "Show subject, validity and expiry status of every certificate in the configured CA bundle,\nor in the bundled anchors when no ca_path is set.",
	Args:  cobra.NoArgs,
	RunE:  runAnchors,
}

func init() {
	rootCmd.AddCommand(anchorsCmd)

	anchorsCmd.Flags().String("ca-path", "", "CA bundle to inspect (default: ca_path from config, then the bundled anchors)")
}

func runAnchors(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	caPath, _ := cmd.Flags().GetString("ca-path")
	if caPath == "" {
		caPath = cfg.CAPath
	}

	bundle := transport.BundledAnchors()
	if caPath != "" {
		bundle, err = transport.LoadAnchors(caPath)
		if err != nil {
			return err
		}
	}
	infos, err := transport.InspectAnchors(bundle)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if format != formatTable {
		return writeStructured(w, format, infos)
	}

	t := newTable("SUBJECT", "VALID UNTIL", "DAYS", "CA", "STATUS")
	for _, info := range infos {
		row := []string{
			info.Subject,
			info.ValidUntil.Format("2006-01-02"),
			fmt.Sprintf("%d", info.DaysUntilExpiry),
			fmt.Sprintf("%t", info.IsCA),
		}
		switch {
		case info.IsExpired:
			t.addColoredRow(errorColor, append(row, "expired")...)
		case info.ExpiryWarning:
			t.addColoredRow(warnColor, append(row, "expiring")...)
		default:
			t.addColoredRow(successColor, append(row, "valid")...)
		}
	}
	t.render(w)

	if expiring := transport.Expiring(infos, transport.ExpiryWarningDays); len(expiring) > 0 {
		warn(w, "%d anchor(s) expired or expiring within %d days", len(expiring), transport.ExpiryWarningDays)
	}
	return nil
}
