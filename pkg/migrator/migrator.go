// Package migrator applies rendered migration documents to a database.
//
// Application is idempotent: every applied document is recorded in a
// strata_migrations tracking table together with a content checksum, and a
// document whose checksum matches the most recently applied one is skipped
// unless forced. Apply uses a transaction whenever the handle supports one,
// so a document lands atomically or not at all.
package migrator

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/strataform/strata/pkg/migrate"
)

// trackingTable records applied migrations. It lives unprefixed in the
// default schema so the tracking state survives schema-prefix changes.
const trackingTable = "strata_migrations"

// Options controls one Apply call.
type Options struct {
	// DryRun writes the document SQL to the writer instead of executing it.
	DryRun io.Writer

	// Force applies the document even when its checksum matches the last
	// applied migration.
	Force bool
}

// Migrator applies migration documents through an Execer.
type Migrator struct {
	db Execer
}

// New creates a migrator over a database handle. The Execer is typically
// *sql.DB but can be *sql.Tx for testing.
func New(db Execer) *Migrator {
	return &Migrator{db: db}
}

// Checksum returns the SHA-256 content hash used for skip-if-unchanged.
func Checksum(doc migrate.Document) string {
	h := sha256.Sum256([]byte(doc.SQL()))
	return hex.EncodeToString(h[:])
}

// Apply executes a migration document. It reports whether the document was
// actually applied: dry runs, empty documents, and unchanged checksums all
// return false with no error.
func (m *Migrator) Apply(ctx context.Context, doc migrate.Document, opts Options) (bool, error) {
	if opts.DryRun != nil {
		if _, err := io.WriteString(opts.DryRun, doc.SQL()); err != nil {
			return false, fmt.Errorf("writing dry-run output: %w", err)
		}
		return false, nil
	}
	if len(doc.Statements) == 0 {
		return false, nil
	}

	if err := m.ensureTrackingTable(ctx); err != nil {
		return false, err
	}

	checksum := Checksum(doc)
	if !opts.Force {
		last, err := m.lastChecksum(ctx)
		if err != nil {
			return false, err
		}
		if last == checksum {
			return false, nil
		}
	}

	if txer, ok := m.db.(interface {
		BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	}); ok {
		tx, err := txer.BeginTx(ctx, nil)
		if err != nil {
			return false, fmt.Errorf("starting transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if err := m.applyStatements(ctx, tx, doc); err != nil {
			return false, err
		}
		if err := m.record(ctx, tx, doc.Name, checksum); err != nil {
			return false, err
		}
		if err := tx.Commit(); err != nil {
			return false, fmt.Errorf("committing migration %s: %w", doc.Name, err)
		}
		return true, nil
	}

	// Non-transactional fallback for handles without BeginTx.
	if err := m.applyStatements(ctx, m.db, doc); err != nil {
		return false, err
	}
	if err := m.record(ctx, m.db, doc.Name, checksum); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Migrator) applyStatements(ctx context.Context, db Execer, doc migrate.Document) error {
	for _, stmt := range doc.Statements {
		for _, single := range splitStatements(stmt) {
			if _, err := db.ExecContext(ctx, single); err != nil {
				return fmt.Errorf("applying %s: %q: %w", doc.Name, single, err)
			}
		}
	}
	return nil
}

func (m *Migrator) ensureTrackingTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+trackingTable+` (
  name varchar(255) NOT NULL PRIMARY KEY,
  checksum varchar(64) NOT NULL,
  applied_at timestamp NOT NULL DEFAULT CURRENT_TIMESTAMP
)`)
	if err != nil {
		return fmt.Errorf("creating %s: %w", trackingTable, err)
	}
	return nil
}

// lastChecksum returns the checksum of the most recently applied migration,
// or "" when none exists.
func (m *Migrator) lastChecksum(ctx context.Context) (string, error) {
	var checksum string
	err := m.db.QueryRowContext(ctx,
		`SELECT checksum FROM `+trackingTable+` ORDER BY applied_at DESC, name DESC LIMIT 1`,
	).Scan(&checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying last migration: %w", err)
	}
	return checksum, nil
}

// record inserts the tracking row. It embeds literals rather than
// placeholders because placeholder syntax differs across the supported
// drivers; the name may carry a caller-supplied label, so it is escaped.
func (m *Migrator) record(ctx context.Context, db Execer, name, checksum string) error {
	stmt := fmt.Sprintf(`INSERT INTO %s (name, checksum) VALUES ('%s', '%s')`,
		trackingTable, escapeLiteral(name), escapeLiteral(checksum))
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("recording migration %s: %w", name, err)
	}
	return nil
}

func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// splitStatements breaks a rendered operation that expanded to several
// statements (constraint retargets) into individually executable strings.
func splitStatements(stmt string) []string {
	parts := strings.Split(stmt, ";\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(p), ";"))
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
