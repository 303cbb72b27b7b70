// Package cli holds the pdfqa command tree: the HTTP server and the inspection commands.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pdfqa",
	Short: "Question answering over uploaded PDFs",
	Long: `pdfqa indexes PDF documents into a local SQLite vector store and answers
questions about them with retrieved context. Without a subcommand it starts the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
