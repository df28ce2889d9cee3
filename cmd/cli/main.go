package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ripple",
	Short: "Ripple CLI - operational tooling for the Ripple backend",
	Long: `Ripple CLI bundles the operational commands for a Ripple deployment:
seeding development data and managing admin accounts. All commands talk
to the database configured through the usual environment variables.`,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(promoteAdminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
