//go:build tools

package tools

// This file tracks versions of CLI tool dependencies.
// The tool itself is declared in go.mod's tool directive.

import (
	_ "github.com/pressly/goose/v3/cmd/goose"
)
