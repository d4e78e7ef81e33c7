// Package assets embeds the board table DDL, one file per SQL dialect.
package assets

import (
	"embed"
	"fmt"
)

//go:embed sql/*.sql
var FS embed.FS

// Schema returns the CREATE TABLE script for dialect ("postgres" or "sqlite").
func Schema(dialect string) (string, error) {
	b, err := FS.ReadFile("sql/" + dialect + ".sql")
	if err != nil {
		return "", fmt.Errorf("schema for %q: %w", dialect, err)
	}
	return string(b), nil
}
