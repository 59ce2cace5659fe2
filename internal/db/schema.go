package db

import (
	"embed"
	"fmt"
)

//go:embed schema/*.sql
var schemaFiles embed.FS

func schemaSQL(dialect string) (string, error) {
	data, err := schemaFiles.ReadFile("schema/" + dialect + ".sql")
	if err != nil {
		return "", fmt.Errorf("failed to read %s schema: %w", dialect, err)
	}
	return string(data), nil
}
