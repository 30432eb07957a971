// Package commands implements the ctapdctl CLI commands.
package commands

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// httpClient is the client used for all ctapd debug-server requests,
	// initialized in PersistentPreRunE.
	httpClient *http.Client

	// baseURL is the ctapd debug server's base URL.
	baseURL string

	// outputFormat controls the output format for all commands (table or json).
	outputFormat string

	// serverAddr is the ctapd debug server address (host:port).
	serverAddr string
)

// requestTimeout bounds a single debug-server request.
const requestTimeout = 5 * time.Second

// rootCmd is the top-level cobra command for ctapdctl.
var rootCmd = &cobra.Command{
	Use:   "ctapdctl",
	Short: "CLI client for the ctapd daemon",
	Long:  "ctapdctl queries the ctapd daemon's debug/introspection HTTP endpoints.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		httpClient = &http.Client{Timeout: requestTimeout}
		baseURL = "http://" + serverAddr
		return nil
	},
	// Silence cobra's built-in usage/error printing so we control it.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "localhost:8080",
		"ctapd debug server address (host:port)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table",
		"output format: table, json")

	rootCmd.AddCommand(channelsCmd())
	rootCmd.AddCommand(stateCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(shellCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
