package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sampletrack",
	Short: "Garment sample tracking service",
	Long:  `Tracks garment sample stock: intake, internal distribution, container assignment, outbound invoices and the movement audit trail`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
