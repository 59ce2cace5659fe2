package main

import (
	"fmt"
	"os"

	"github.com/nerdintosubs/hiring-agent/internal/schemas"
	schemafiles "github.com/nerdintosubs/hiring-agent/schemas"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a JSON document against a schema",
	Long:  "Checks --json against --schema. Without --schema the webhook envelope schema is used.",
	RunE:  runValidate,
}

var (
	validateSchemaPath string
	validateJSONPath   string
)

func init() {
	validateCmd.Flags().StringVar(&validateSchemaPath, "schema", "", "Path to a JSON Schema (default: webhook envelope)")
	validateCmd.Flags().StringVar(&validateJSONPath, "json", "", "Path to the JSON document (required)")

	if err := validateCmd.MarkFlagRequired("json"); err != nil {
		panic(fmt.Sprintf("failed to mark json flag as required: %v", err))
	}

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	var schema []byte
	var err error
	if validateSchemaPath == "" {
		schema, err = schemafiles.Files.ReadFile(schemafiles.WebhookEvent)
	} else {
		schema, err = os.ReadFile(validateSchemaPath)
	}
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}

	document, err := os.ReadFile(validateJSONPath)
	if err != nil {
		return fmt.Errorf("failed to read json: %w", err)
	}

	if err := schemas.ValidateJSONString(string(schema), string(document)); err != nil {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Validation failed:\n%v\n", err)
		return fmt.Errorf("validation failed")
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Validation passed")
	return nil
}
