package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteAdapter implements DBAdapter for SQLite files and in-memory databases.
type SQLiteAdapter struct {
	memory bool
}

var sqliteForbidden = []forbiddenPattern{
	rawPattern(`(?i)\bload_extension\s*\(`, "load_extension()"),
	rawPattern(`(?i)\bwritefile\s*\(`, "writefile()"),
	rawPattern(`(?i)\breadfile\s*\(`, "readfile()"),
	rawPattern(`(?i)\bfts3_tokenizer\s*\(`, "fts3_tokenizer()"),
	keywordPattern("ATTACH"),
	keywordPattern("DETACH"),
}

func (a *SQLiteAdapter) DriverName() string { return "sqlite" }

func (a *SQLiteAdapter) Kind() Kind {
	if a.memory {
		return KindMemorySQLite
	}
	return KindSQLite
}

func (a *SQLiteAdapter) BuildDSN(path string) (string, error) {
	if path == "" {
		// A unique shared-cache name keeps every pool connection on the
		// same database and keeps sessions apart from each other.
		return fmt.Sprintf("file:mem-%s?mode=memory&cache=shared", uuid.NewString()), nil
	}
	if strings.ContainsAny(path, "?#") {
		return "", newError(KindUnsupportedFormat, "sqlite path must not contain '?' or '#': %s", path)
	}
	return path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", nil
}

func (a *SQLiteAdapter) Configure(ctx context.Context, db *sql.DB) error {
	// One connection: SQLite serializes writers anyway, and an in-memory
	// database lives only as long as some connection holds it open.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
	return nil
}

func (a *SQLiteAdapter) ListTablesQuery() (string, []any) {
	// SQLite has no information_schema. Use sqlite_master.
	return `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`,
		nil
}

func (a *SQLiteAdapter) ReadSchemaQuery(tableName string) (string, []any) {
	// PRAGMA table_info cannot use ? placeholders, so we embed the table name safely.
	return fmt.Sprintf("PRAGMA table_info('%s')", strings.ReplaceAll(tableName, "'", "''")),
		nil
}

func (a *SQLiteAdapter) ScanSchemaRow(rows *sql.Rows) (ColumnInfo, error) {
	// PRAGMA table_info returns: cid, name, type, notnull, dflt_value, pk
	var cid int
	var name, colType string
	var notNull, pk int
	var dfltValue sql.NullString

	if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
		return ColumnInfo{}, err
	}

	col := ColumnInfo{Name: name, DataType: colType, Nullable: "YES"}
	if notNull == 1 {
		col.Nullable = "NO"
	}
	if pk > 0 {
		col.Key = "PRI"
	}
	if dfltValue.Valid {
		col.Default = dfltValue.String
	}
	return col, nil
}

func (a *SQLiteAdapter) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (a *SQLiteAdapter) Placeholder(n int) string { return "?" }

func (a *SQLiteAdapter) ColumnType(kind ValueKind) string {
	switch kind {
	case ValueInteger:
		return "INTEGER"
	case ValueReal:
		return "REAL"
	}
	return "TEXT"
}

func (a *SQLiteAdapter) ForbiddenPatterns() []forbiddenPattern { return sqliteForbidden }

// RemoveStringsAndComments strips string literals and comments from SQL
// for safe keyword detection. SQLite-specific: no # comments, no backslash
// escaping, supports backtick and [bracket] identifiers. Quoted identifiers
// are emptied so their names never read as keywords.
func (a *SQLiteAdapter) RemoveStringsAndComments(sql string) string {
	var result strings.Builder
	i := 0
	n := len(sql)

	for i < n {
		// Single-line comment starting with --
		if i+1 < n && sql[i] == '-' && sql[i+1] == '-' {
			for i < n && sql[i] != '\n' {
				i++
			}
			result.WriteByte(' ')
			continue
		}

		// Multi-line comment /* */
		if i+1 < n && sql[i] == '/' && sql[i+1] == '*' {
			i += 2
			for i+1 < n && !(sql[i] == '*' && sql[i+1] == '/') {
				i++
			}
			i += 2
			result.WriteByte(' ')
			continue
		}

		// Single-quoted string (no backslash escaping in SQLite)
		if sql[i] == '\'' {
			i = skipQuoted(sql, i, '\'')
			result.WriteString("''")
			continue
		}

		// Double-quoted, backtick and bracket identifiers are emptied
		if sql[i] == '"' || sql[i] == '`' || sql[i] == '[' {
			i = blankIdentifier(&result, sql, i)
			continue
		}

		result.WriteByte(sql[i])
		i++
	}

	return result.String()
}
