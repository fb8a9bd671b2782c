package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ConnectionTimeout bounds the ping performed while connecting.
const ConnectionTimeout = 10 * time.Second

// Backend is one open database session resource. Each variant implements
// what its engine can do and reports the rest as UnsupportedBackend or
// ReadOnlyBackend; callers never inspect the concrete type.
type Backend interface {
	Supports(c Capability) bool

	// Query runs a row-returning statement.
	Query(ctx context.Context, sqlText string, params Params) (*QueryResult, error)

	// Update runs a mutating statement once per parameter set. Several
	// parameter sets execute in one transaction.
	Update(ctx context.Context, sqlText string, batch []Params) (*QueryResult, error)

	// ReadTable returns every row of a table regardless of max_rows.
	ReadTable(ctx context.Context, table string) (*QueryResult, error)

	Tables(ctx context.Context) ([]string, error)
	Describe(ctx context.Context, table string) ([]ColumnInfo, error)

	QuoteIdent(name string) string
	ColumnType(kind ValueKind) string

	Close() error
}

// openBackend opens the resource for a detected target.
func openBackend(ctx context.Context, det *Detection, cfg *Config) (Backend, error) {
	if det.Kind == KindLegacyAccess97 {
		return openLegacyBackend(det.Path, cfg.MaxRows)
	}
	adapter, err := newAdapter(det.Kind, cfg)
	if err != nil {
		return nil, err
	}
	return openSQLBackend(ctx, adapter, det, cfg.MaxRows)
}

// sqlBackend runs statements on a live engine through database/sql.
type sqlBackend struct {
	adapter DBAdapter
	caps    Capabilities
	db      *sql.DB
	maxRows int
}

func openSQLBackend(ctx context.Context, adapter DBAdapter, det *Detection, maxRows int) (*sqlBackend, error) {
	dsn, err := adapter.BuildDSN(det.Path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(adapter.DriverName(), dsn)
	if err != nil {
		return nil, wrapError(KindConnectionFailed, err, "open %s database", adapter.Kind())
	}
	if err := adapter.Configure(ctx, db); err != nil {
		db.Close()
		return nil, wrapError(KindConnectionFailed, err, "configure %s database", adapter.Kind())
	}

	pingCtx, cancel := context.WithTimeout(ctx, ConnectionTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, wrapError(KindConnectionFailed, err, "connect to %s database", adapter.Kind())
	}

	return &sqlBackend{adapter: adapter, caps: det.Capabilities, db: db, maxRows: maxRows}, nil
}

func (b *sqlBackend) Supports(c Capability) bool       { return b.caps.Has(c) }
func (b *sqlBackend) QuoteIdent(name string) string    { return b.adapter.QuoteIdent(name) }
func (b *sqlBackend) ColumnType(kind ValueKind) string { return b.adapter.ColumnType(kind) }

func (b *sqlBackend) Query(ctx context.Context, sqlText string, params Params) (*QueryResult, error) {
	kind, err := classifyStatement(b.adapter, sqlText)
	if err != nil {
		return nil, err
	}
	if kind != stmtRead {
		return nil, newError(KindNotAQuery, "query only runs row-returning statements; use update for this %s statement", kind)
	}

	boundSQL, args, err := bindParams(b.adapter, sqlText, params)
	if err != nil {
		return nil, err
	}

	rows, err := b.db.QueryContext(ctx, boundSQL, args...)
	if err != nil {
		return nil, queryFailed(err)
	}
	defer rows.Close()

	return scanRows(rows, b.maxRows)
}

// scanRows collects a result set, stopping after maxRows when positive.
func scanRows(rows *sql.Rows, maxRows int) (*QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, queryFailed(err)
	}

	result := &QueryResult{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		if maxRows > 0 && len(result.Rows) >= maxRows {
			result.Truncated = true
			break
		}

		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, wrapError(KindQueryFailed, err, "scan row %d", len(result.Rows)+1)
		}
		for i, v := range values {
			values[i] = normalizeCell(v)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, queryFailed(err)
	}

	result.RowCount = len(result.Rows)
	return result, nil
}

// normalizeCell maps driver values onto text/number/bool/time/blob/null.
// Drivers that hand text back as []byte get a string when it is valid UTF-8.
func normalizeCell(v any) any {
	switch t := v.(type) {
	case []byte:
		if utf8.Valid(t) {
			return string(t)
		}
		return append([]byte(nil), t...)
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	}
	return v
}

func (b *sqlBackend) Update(ctx context.Context, sqlText string, batch []Params) (*QueryResult, error) {
	kind, err := classifyStatement(b.adapter, sqlText)
	if err != nil {
		return nil, err
	}
	if kind == stmtRead {
		return nil, newError(KindNotAnUpdate, "update only runs mutating statements; use query for row-returning statements")
	}

	if len(batch) <= 1 {
		var p Params
		if len(batch) == 1 {
			p = batch[0]
		}
		affected, err := execOne(ctx, b.db, b.adapter, sqlText, p)
		if err != nil {
			return nil, err
		}
		return &QueryResult{Columns: []string{}, Rows: [][]any{}, RowsAffected: affected}, nil
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, queryFailed(err)
	}
	var total int64
	for i, p := range batch {
		affected, err := execOne(ctx, tx, b.adapter, sqlText, p)
		if err != nil {
			tx.Rollback()
			return nil, annotateBatch(err, i)
		}
		total += affected
	}
	if err := tx.Commit(); err != nil {
		return nil, queryFailed(err)
	}
	return &QueryResult{Columns: []string{}, Rows: [][]any{}, RowsAffected: total}, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func execOne(ctx context.Context, ex execer, a DBAdapter, sqlText string, p Params) (int64, error) {
	boundSQL, args, err := bindParams(a, sqlText, p)
	if err != nil {
		return 0, err
	}
	res, err := ex.ExecContext(ctx, boundSQL, args...)
	if err != nil {
		return 0, queryFailed(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		// Not every driver reports a count (DDL over ODBC, for one).
		return 0, nil
	}
	return affected, nil
}

func annotateBatch(err error, index int) error {
	var e *Error
	if errors.As(err, &e) {
		msg := fmt.Sprintf("batch entry %d", index)
		if e.Message != "" {
			msg += ": " + e.Message
		}
		return &Error{Kind: e.Kind, Message: msg, Err: e.Err}
	}
	return wrapError(KindQueryFailed, err, "batch entry %d", index)
}

func (b *sqlBackend) ReadTable(ctx context.Context, table string) (*QueryResult, error) {
	rows, err := b.db.QueryContext(ctx, "SELECT * FROM "+b.adapter.QuoteIdent(table))
	if err != nil {
		return nil, wrapError(KindQueryFailed, err, "read table %s", table)
	}
	defer rows.Close()
	return scanRows(rows, 0)
}

func (b *sqlBackend) Tables(ctx context.Context) ([]string, error) {
	query, args := b.adapter.ListTablesQuery()
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError(KindQueryFailed, err, "list tables")
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, wrapError(KindQueryFailed, err, "scan table name")
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(KindQueryFailed, err, "list tables")
	}
	return tables, nil
}

func (b *sqlBackend) Describe(ctx context.Context, table string) ([]ColumnInfo, error) {
	query, args := b.adapter.ReadSchemaQuery(table)
	if query == "" {
		return b.probeColumns(ctx, table)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError(KindQueryFailed, err, "read schema of %s", table)
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		col, err := b.adapter.ScanSchemaRow(rows)
		if err != nil {
			return nil, wrapError(KindQueryFailed, err, "scan column info")
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(KindQueryFailed, err, "read schema of %s", table)
	}
	if len(columns) == 0 {
		return nil, newError(KindTableNotFound, "table %q does not exist", table)
	}
	return columns, nil
}

// probeColumns reads column metadata from an empty result set.
func (b *sqlBackend) probeColumns(ctx context.Context, table string) ([]ColumnInfo, error) {
	rows, err := b.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s WHERE 1 = 0", b.adapter.QuoteIdent(table)))
	if err != nil {
		return nil, wrapError(KindTableNotFound, err, "table %q is not readable", table)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, wrapError(KindQueryFailed, err, "read column types of %s", table)
	}
	columns := make([]ColumnInfo, 0, len(types))
	for _, ct := range types {
		col := ColumnInfo{Name: ct.Name(), DataType: strings.ToUpper(ct.DatabaseTypeName())}
		if nullable, ok := ct.Nullable(); ok {
			col.Nullable = "NO"
			if nullable {
				col.Nullable = "YES"
			}
		}
		columns = append(columns, col)
	}
	return columns, nil
}

func (b *sqlBackend) Close() error {
	return b.db.Close()
}
