// Package main provides the entry point for the Bangalore hiring agent API server and its tools.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hiring_agent",
	Short: "Bangalore therapist hiring agent",
	Long: "Hiring agent for Bangalore wellness employers: job intake, candidate screening, " +
		"interviews, shortlists and offers, channel webhooks and website lead SLAs over a REST API.",
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
