package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// AccessAdapter implements DBAdapter for .mdb/.accdb files opened through
// an ODBC driver (Jet 4 and ACE formats).
type AccessAdapter struct {
	driver string
}

var accessForbidden = []forbiddenPattern{
	// IN 'other.mdb' and [Text;DATABASE=...] reach external containers.
	rawPattern(`(?i)\bIN\s+'[^']*'`, "IN '<external database>'"),
	rawPattern(`(?i)\[\s*(text|excel[^;\]]*|odbc|html)\s*;`, "external ISAM connect string"),
}

func (a *AccessAdapter) DriverName() string { return "odbc" }
func (a *AccessAdapter) Kind() Kind         { return KindModernAccess }

func (a *AccessAdapter) BuildDSN(path string) (string, error) {
	if path == "" {
		return "", newError(KindUnsupportedFormat, "Access databases require a file path")
	}
	driver := a.driver
	if driver == "" {
		driver = defaultAccessDriver
	}
	return fmt.Sprintf("DRIVER={%s};DBQ=%s;", driver, path), nil
}

func (a *AccessAdapter) Configure(ctx context.Context, db *sql.DB) error {
	// The Access engine keeps a lock file per connection; one is enough.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return nil
}

func (a *AccessAdapter) ListTablesQuery() (string, []any) {
	// Type 1 is a local table; non-zero Flags mark system and hidden tables.
	return `SELECT Name FROM MSysObjects WHERE Type = 1 AND Flags = 0 ORDER BY Name`, nil
}

func (a *AccessAdapter) ReadSchemaQuery(tableName string) (string, []any) {
	// No catalog view through ODBC; columns are probed instead.
	return "", nil
}

func (a *AccessAdapter) ScanSchemaRow(rows *sql.Rows) (ColumnInfo, error) {
	return ColumnInfo{}, newError(KindNotImplemented, "Access has no schema query")
}

func (a *AccessAdapter) QuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "") + "]"
}

func (a *AccessAdapter) Placeholder(n int) string { return "?" }

func (a *AccessAdapter) ColumnType(kind ValueKind) string {
	switch kind {
	case ValueInteger:
		return "LONG"
	case ValueReal:
		return "DOUBLE"
	}
	return "MEMO"
}

func (a *AccessAdapter) ForbiddenPatterns() []forbiddenPattern { return accessForbidden }

// RemoveStringsAndComments strips string literals from Access SQL. Access
// has no comment syntax; both quote styles delimit strings, identifiers use
// [brackets] or backticks.
func (a *AccessAdapter) RemoveStringsAndComments(sql string) string {
	var result strings.Builder
	i := 0
	n := len(sql)

	for i < n {
		switch sql[i] {
		case '\'', '"':
			q := sql[i]
			i = skipQuoted(sql, i, q)
			result.WriteByte(q)
			result.WriteByte(q)
		case '[', '`':
			i = blankIdentifier(&result, sql, i)
		default:
			result.WriteByte(sql[i])
			i++
		}
	}

	return result.String()
}
