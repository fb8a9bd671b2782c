package main

import (
	"context"
	"errors"
	"strings"
)

// legacyBackend serves Access 97 files through the built-in Jet 3 reader.
// It is read-only and evaluates the restricted SELECT dialect in process.
type legacyBackend struct {
	file    *jetFile
	maxRows int
}

func openLegacyBackend(path string, maxRows int) (*legacyBackend, error) {
	file, err := openJetFile(path)
	if err != nil {
		if errors.Is(err, errCorrupt) {
			return nil, wrapError(KindConnectionFailed, err, "read %s", path)
		}
		return nil, wrapError(KindConnectionFailed, err, "open %s", path)
	}
	return &legacyBackend{file: file, maxRows: maxRows}, nil
}

func (b *legacyBackend) Supports(Capability) bool { return false }

func (b *legacyBackend) Query(ctx context.Context, sqlText string, params Params) (*QueryResult, error) {
	if strings.TrimSpace(sqlText) == "" {
		return nil, newError(KindInvalidArgument, "empty statement")
	}
	if !params.Empty() {
		return nil, unsupported("parameter substitution")
	}

	stmt, err := parseLegacySelect(sqlText)
	if err != nil {
		return nil, err
	}
	table, ok := b.file.Table(stmt.Table)
	if !ok {
		return nil, newError(KindQueryFailed, "no such table %q", stmt.Table)
	}
	if err := ctx.Err(); err != nil {
		return nil, wrapError(KindQueryFailed, err, "query cancelled")
	}

	rows, err := b.file.readRows(table)
	if err != nil {
		return nil, wrapError(KindQueryFailed, err, "read table %s", table.Name)
	}
	return evaluateLegacySelect(stmt, table, rows, b.maxRows)
}

func (b *legacyBackend) ReadTable(ctx context.Context, table string) (*QueryResult, error) {
	t, ok := b.file.Table(table)
	if !ok {
		return nil, newError(KindTableNotFound, "table %q does not exist", table)
	}
	rows, err := b.file.readRows(t)
	if err != nil {
		return nil, wrapError(KindQueryFailed, err, "read table %s", t.Name)
	}
	return evaluateLegacySelect(&legacySelect{Table: t.Name}, t, rows, 0)
}

func (b *legacyBackend) Update(context.Context, string, []Params) (*QueryResult, error) {
	return nil, newError(KindReadOnlyBackend, "%s databases are read-only", KindLegacyAccess97)
}

func (b *legacyBackend) Tables(context.Context) ([]string, error) {
	return b.file.TableNames(), nil
}

func (b *legacyBackend) Describe(_ context.Context, table string) ([]ColumnInfo, error) {
	t, ok := b.file.Table(table)
	if !ok {
		return nil, newError(KindTableNotFound, "table %q does not exist", table)
	}
	columns := make([]ColumnInfo, len(t.Columns))
	for i, c := range t.Columns {
		columns[i] = ColumnInfo{Name: c.Name, DataType: c.Type.String(), Nullable: "YES"}
	}
	return columns, nil
}

func (b *legacyBackend) QuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (b *legacyBackend) ColumnType(ValueKind) string { return "TEXT" }

func (b *legacyBackend) Close() error { return b.file.Close() }
