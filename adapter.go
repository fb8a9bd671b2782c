package main

import (
	"context"
	"database/sql"
	"regexp"
)

// DBAdapter defines the contract for engine-specific behavior.
// Each live SQL engine (SQLite, Access over ODBC, MySQL, PostgreSQL)
// implements this interface; one adapter instance serves one session.
type DBAdapter interface {
	// DriverName returns the database/sql driver name (e.g., "sqlite", "odbc").
	DriverName() string

	// Kind returns the backend kind served by this adapter.
	Kind() Kind

	// BuildDSN constructs the driver DSN for a detected path or URL.
	// An empty path is only valid for SQLite and means in-memory.
	BuildDSN(path string) (string, error)

	// Configure tunes the pool right after opening.
	Configure(ctx context.Context, db *sql.DB) error

	// ListTablesQuery returns the SQL query and arguments to list user tables.
	ListTablesQuery() (string, []any)

	// ReadSchemaQuery returns the SQL query and arguments to read column info
	// for a table. An empty query means the engine has no catalog view and
	// columns are probed from an empty result set instead.
	ReadSchemaQuery(tableName string) (string, []any)

	// ScanSchemaRow scans a single row from the schema query result.
	ScanSchemaRow(rows *sql.Rows) (ColumnInfo, error)

	// QuoteIdent quotes a table or column name.
	QuoteIdent(name string) string

	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder(n int) string

	// ColumnType returns the DDL type used for an inferred column kind.
	ColumnType(kind ValueKind) string

	// ForbiddenPatterns lists constructs that would let a statement reach
	// files outside the session (extensions, exports, attached databases).
	ForbiddenPatterns() []forbiddenPattern

	// RemoveStringsAndComments strips string literals and comments from SQL
	// for safe keyword detection.
	RemoveStringsAndComments(sql string) string
}

// forbiddenPattern is matched against the raw statement when onCleaned is
// false, or against the string/comment-free text otherwise.
type forbiddenPattern struct {
	re        *regexp.Regexp
	desc      string
	onCleaned bool
}

func rawPattern(pattern, desc string) forbiddenPattern {
	return forbiddenPattern{re: regexp.MustCompile(pattern), desc: desc}
}

func keywordPattern(keyword string) forbiddenPattern {
	return forbiddenPattern{
		re:        regexp.MustCompile(`(?i)(?:^|[^a-zA-Z_])` + keyword + `(?:[^a-zA-Z_]|$)`),
		desc:      keyword,
		onCleaned: true,
	}
}

// newAdapter returns a fresh adapter for a live SQL backend kind.
func newAdapter(kind Kind, cfg *Config) (DBAdapter, error) {
	switch kind {
	case KindSQLite, KindMemorySQLite:
		return &SQLiteAdapter{memory: kind == KindMemorySQLite}, nil
	case KindModernAccess:
		return &AccessAdapter{driver: cfg.AccessDriver}, nil
	case KindMySQL:
		return &MySQLAdapter{}, nil
	case KindPostgres:
		return &PostgresAdapter{}, nil
	}
	return nil, newError(KindUnsupportedBackend, "no SQL engine adapter for %s", kind)
}
