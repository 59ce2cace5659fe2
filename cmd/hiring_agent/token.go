package main

import (
	"fmt"
	"strings"

	"github.com/nerdintosubs/hiring-agent/internal/config"
	"github.com/nerdintosubs/hiring-agent/internal/server"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the API",
	Long:  "Signs a JWT with JWT_SECRET and JWT_ALGORITHM carrying the given subject and roles.",
	RunE:  runToken,
}

var (
	tokenSubject string
	tokenRoles   string
)

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "sub", "", "Token subject (required)")
	tokenCmd.Flags().StringVar(&tokenRoles, "roles", "recruiter", "Comma-separated roles: admin, recruiter, employer, service")

	if err := tokenCmd.MarkFlagRequired("sub"); err != nil {
		panic(fmt.Sprintf("failed to mark sub flag as required: %v", err))
	}

	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := config.NewJWTConfig()
	if err != nil {
		return err
	}

	var roles []string
	for _, role := range strings.Split(tokenRoles, ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	if len(roles) == 0 {
		return fmt.Errorf("at least one role is required")
	}

	token, err := server.NewJWTService(cfg).GenerateToken(tokenSubject, roles)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
