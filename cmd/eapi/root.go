package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	eapi "github.com/st-keller/eapi-client"
	"github.com/st-keller/eapi-client/config"
	"github.com/st-keller/eapi-client/logging"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "eapi",
	Short: "eAPI command-line client",
	Long: `eapi calls eAPI endpoints from your terminal.

Credentials, server and the pinned CA bundle are read from
$HOME/.eapi/config.yaml and EAPI_* environment variables.`,
	Version:      "1.0.0",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.eapi/config.yaml)")
	rootCmd.PersistentFlags().String("output", formatTable, "output format: table, json, yaml")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = config.Default()
	}
}

// newClient builds a client from the loaded config. Logs go to stderr.
func newClient(cmd *cobra.Command) (*eapi.Client, error) {
	level := cfg.Logging.Level
	if flag, _ := cmd.Flags().GetString("log-level"); flag != "" {
		level = flag
	}
	logger := logging.NewWriter(cmd.ErrOrStderr(), logging.ParseLevel(level), cfg.Logging.Format)

	return eapi.New(cfg.ClientConfig(logger.Logger))
}
