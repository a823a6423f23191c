//go:build tools

package tools

// Pins code generation binaries so `go generate` works from a clean checkout.
import (
	_ "github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen"
	_ "github.com/sqlc-dev/sqlc/cmd/sqlc"
)
