package cli

import (
	"github.com/spf13/cobra"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "logsinkctl",
	Short: "logsink operator CLI",
	Long: `logsinkctl is the command-line companion for the logsink ingestion
service. Seed the endpoint with generated log batches and check service
status from your terminal.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", "http://localhost:3002", "logsink base URL")
}
