// Package migrations embeds the SQL schema for the run and kill ledger.
package migrations

import "embed"

// FS holds every *.sql migration in golang-migrate naming.
//
//go:embed *.sql
var FS embed.FS
