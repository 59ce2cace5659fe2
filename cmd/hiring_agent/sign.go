package main

import (
	"fmt"
	"os"

	"github.com/nerdintosubs/hiring-agent/internal/channel"
	"github.com/spf13/cobra"
)

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Print the webhook signature for a request body",
	Long:  "Computes the sha256=<hex> HMAC header value a provider would send for the body in --file.",
	RunE:  runSign,
}

var (
	signSecret string
	signFile   string
)

func init() {
	signCmd.Flags().StringVar(&signSecret, "channel-secret", "", "Channel webhook secret (required)")
	signCmd.Flags().StringVarP(&signFile, "file", "f", "", "Path to the raw request body (required)")

	if err := signCmd.MarkFlagRequired("channel-secret"); err != nil {
		panic(fmt.Sprintf("failed to mark channel-secret flag as required: %v", err))
	}
	if err := signCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}

	rootCmd.AddCommand(signCmd)
}

func runSign(cmd *cobra.Command, _ []string) error {
	body, err := os.ReadFile(signFile)
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), channel.Sign(body, signSecret))
	return nil
}
