// Package migrations carries the schema migration files compiled into the
// binary so tooling and tests can apply them without a checkout.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
