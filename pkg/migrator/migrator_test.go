package migrator_test

import (
	"bytes"
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strataform/strata/pkg/diff"
	"github.com/strataform/strata/pkg/migrate"
	"github.com/strataform/strata/pkg/migrator"
	"github.com/strataform/strata/pkg/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testDocument(t *testing.T) migrate.Document {
	t.Helper()
	res := diff.Diff(nil, []model.Definition{{
		Name: "Post",
		Schema: []model.Field{
			{Name: "id", Type: model.TypeUUID, PrimaryKey: true},
			{Name: "title", Type: model.TypeString},
		},
	}}, diff.Options{Dialect: "sqlite"})

	return migrate.Render(migrate.SQLite{}, res, migrate.RenderOptions{
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
}

func TestApplyRecordsAndSkips(t *testing.T) {
	db := openTestDB(t)
	m := migrator.New(db)
	doc := testDocument(t)
	ctx := context.Background()

	applied, err := m.Apply(ctx, doc, migrator.Options{})
	require.NoError(t, err)
	assert.True(t, applied)

	var tableName string
	err = db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'posts'`).Scan(&tableName)
	require.NoError(t, err)
	assert.Equal(t, "posts", tableName)

	var checksum string
	err = db.QueryRowContext(ctx,
		`SELECT checksum FROM strata_migrations WHERE name = ?`, doc.Name).Scan(&checksum)
	require.NoError(t, err)
	assert.Equal(t, migrator.Checksum(doc), checksum)

	// Unchanged document skips on the second run.
	applied, err = m.Apply(ctx, doc, migrator.Options{})
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestApplyDryRunTouchesNothing(t *testing.T) {
	db := openTestDB(t)
	m := migrator.New(db)
	doc := testDocument(t)
	ctx := context.Background()

	var out bytes.Buffer
	applied, err := m.Apply(ctx, doc, migrator.Options{DryRun: &out})
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Contains(t, out.String(), `CREATE TABLE "posts"`)

	var count int
	err = db.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type = 'table'`).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count, "dry run must not execute anything")
}

func TestApplyEmptyDocument(t *testing.T) {
	m := migrator.New(openTestDB(t))

	applied, err := m.Apply(context.Background(), migrate.Document{Name: "20260301120000_migration.sql"}, migrator.Options{})
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestApplyQuotedLabelInName(t *testing.T) {
	db := openTestDB(t)
	m := migrator.New(db)
	ctx := context.Background()

	doc := migrate.Document{
		Name: `20260301120000_bob's_table.sql`,
		Statements: []string{
			`CREATE TABLE "ok" ("id" text PRIMARY KEY);`,
		},
	}

	applied, err := m.Apply(ctx, doc, migrator.Options{})
	require.NoError(t, err)
	assert.True(t, applied)

	var name string
	err = db.QueryRowContext(ctx,
		`SELECT name FROM strata_migrations WHERE name = ?`, doc.Name).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, doc.Name, name)
}

func TestRollbackOnFailure(t *testing.T) {
	db := openTestDB(t)
	m := migrator.New(db)
	ctx := context.Background()

	doc := migrate.Document{
		Name: "20260301120000_broken.sql",
		Statements: []string{
			`CREATE TABLE "ok" ("id" text PRIMARY KEY);`,
			`THIS IS NOT SQL;`,
		},
	}

	applied, err := m.Apply(ctx, doc, migrator.Options{})
	require.Error(t, err)
	assert.False(t, applied)

	var count int
	err = db.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'ok'`).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count, "failed migration must roll back")
}
