// Package commands implements the suretyoracle command line tool: a
// standalone oracle operator and a few inspection helpers for a remote
// suretynode.
package commands

import (
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/flightsurety/suretynode/apiclient"
	"github.com/flightsurety/suretynode/config"
	"github.com/flightsurety/suretynode/log"
)

var (
	opCfg    config.OperatorCfg
	logLevel string
	client   *apiclient.HTTPclient
)

var rootCmd = &cobra.Command{
	Use:   "suretyoracle",
	Short: "flight status oracle command line interface.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.Init(logLevel, "stderr")
		u, err := url.Parse(opCfg.URL)
		if err != nil {
			return err
		}
		client, err = apiclient.NewHTTPclient(u)
		return err
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&opCfg.URL, "url", "u", "http://127.0.0.1:9095",
		"suretynode API endpoint to connect to")
	rootCmd.PersistentFlags().StringVarP(
		&logLevel, "logLevel", "l", "info",
		"log level (debug, info, warn, error, fatal)")
}

// Execute ...
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
