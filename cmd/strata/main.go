// Package main provides the strata CLI.
//
// The CLI supports:
//   - validate: Check a model snapshot for structural errors
//   - diff:     Show schema operations between snapshots
//   - policies: Compile row-level-security policy SQL
//   - migrate:  Render and apply the migration to a database
//   - config:   Show effective configuration
//
// Model snapshots are produced by the DSL toolchain; strata consumes the
// snapshots and keeps the database schema and access policies in sync with
// them.
package main

func main() {
	Execute()
}
