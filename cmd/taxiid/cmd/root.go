// Package cmd provides the CLI commands for taxiid.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/darwis-taxii/taxii-server/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "taxiid",
	Short: "taxiid - STIX/TAXII cyber threat intelligence server",
	Long: `taxiid serves STIX 2.1 objects over a TAXII 2.1 API and legacy STIX
1.x content over TAXII 1.x services.

Quick start:
  1. Create a config file: taxiid.yaml
  2. Run: taxiid serve

Configuration:
  Config is loaded from taxiid.yaml in the current directory, $HOME/.taxiid/,
  or /etc/taxiid/.

  Environment variables can override config values with the TAXIID_ prefix.
  Example: TAXIID_SERVER_HTTP_ADDR=:9090

Commands:
  serve       Start the TAXII server
  version     Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./taxiid.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
