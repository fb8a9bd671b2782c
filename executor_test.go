package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMemorySession connects an in-memory SQLite session named "mem" and runs
// the given setup statements on it.
func newMemorySession(t *testing.T, r *Registry, setup ...string) {
	t.Helper()
	ctx := context.Background()
	_, err := r.Connect(ctx, "mem", "")
	require.NoError(t, err)
	for _, stmt := range setup {
		_, err := r.Update(ctx, "mem", stmt, nil)
		require.NoError(t, err, stmt)
	}
}

func TestQuery_ReturnsRows(t *testing.T) {
	r := newTestRegistry(t)
	newMemorySession(t, r,
		"CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT NOT NULL, score REAL, photo BLOB)",
		"INSERT INTO people (id, name, score) VALUES (1, 'Ann', 9.5), (2, 'Ben', NULL)",
	)

	result, err := r.Query(context.Background(), "mem", "SELECT id, name, score FROM people ORDER BY id", Params{})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "score"}, result.Columns)
	assert.Equal(t, [][]any{
		{int64(1), "Ann", 9.5},
		{int64(2), "Ben", nil},
	}, result.Rows)
	assert.Equal(t, 2, result.RowCount)
	assert.False(t, result.Truncated)
}

func TestQuery_EmptyResultHasColumns(t *testing.T) {
	r := newTestRegistry(t)
	newMemorySession(t, r, "CREATE TABLE t (a INTEGER, b TEXT)")

	result, err := r.Query(context.Background(), "mem", "SELECT a, b FROM t", Params{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, result.Columns)
	assert.NotNil(t, result.Rows)
	assert.Empty(t, result.Rows)
	assert.Zero(t, result.RowCount)
}

func TestQuery_Parameters(t *testing.T) {
	r := newTestRegistry(t)
	newMemorySession(t, r,
		"CREATE TABLE items (id INTEGER, label TEXT)",
		"INSERT INTO items VALUES (1, 'one'), (2, 'two'), (3, 'three')",
	)
	ctx := context.Background()

	named, err := r.Query(ctx, "mem", "SELECT label FROM items WHERE id >= :lo AND id <= :hi ORDER BY id",
		Params{Named: map[string]any{"lo": 2, "hi": 3}})
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"two"}, {"three"}}, named.Rows)

	positional, err := r.Query(ctx, "mem", "SELECT label FROM items WHERE id = ?",
		Params{Positional: []any{1}})
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"one"}}, positional.Rows)

	// A placeholder-looking token inside a literal is not a parameter.
	literal, err := r.Query(ctx, "mem", "SELECT ':lo' AS v", Params{})
	require.NoError(t, err)
	assert.Equal(t, [][]any{{":lo"}}, literal.Rows)

	_, err = r.Query(ctx, "mem", "SELECT label FROM items WHERE id = :missing", Params{Named: map[string]any{"other": 1}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestQuery_MaxRows(t *testing.T) {
	r := NewRegistry(&Config{MaxRows: 3}, nil)
	t.Cleanup(func() { r.CloseAll() })
	newMemorySession(t, r,
		"CREATE TABLE n (v INTEGER)",
		"INSERT INTO n VALUES (1), (2), (3), (4), (5)",
	)
	ctx := context.Background()

	result, err := r.Query(ctx, "mem", "SELECT v FROM n ORDER BY v", Params{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.RowCount)
	assert.True(t, result.Truncated)
	assert.Equal(t, [][]any{{int64(1)}, {int64(2)}, {int64(3)}}, result.Rows)

	exact, err := r.Query(ctx, "mem", "SELECT v FROM n WHERE v <= 3", Params{})
	require.NoError(t, err)
	assert.Equal(t, 3, exact.RowCount)
	assert.False(t, exact.Truncated, "a result that exactly fits is not truncated")
}

func TestQuery_Rejections(t *testing.T) {
	r := newTestRegistry(t)
	newMemorySession(t, r, "CREATE TABLE t (a INTEGER)")
	ctx := context.Background()

	tests := []struct {
		name string
		sql  string
		want error
	}{
		{"mutating statement", "DELETE FROM t", ErrNotAQuery},
		{"ddl", "DROP TABLE t", ErrNotAQuery},
		{"unknown leading keyword", "CALL something()", ErrNotAQuery},
		{"empty", "  ", ErrInvalidArgument},
		{"multiple statements", "SELECT 1; SELECT 2", ErrUnsupportedQuery},
		{"attach", "ATTACH DATABASE '/tmp/x.db' AS x", ErrUnsupportedQuery},
		{"syntax error", "SELECT FROM WHERE", ErrQueryFailed},
		{"missing table", "SELECT * FROM nope", ErrQueryFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Query(ctx, "mem", tt.sql, Params{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	// Rejected statements never ran.
	tables, err := r.ListTables(ctx, "mem")
	require.NoError(t, err)
	assert.Equal(t, []string{"t"}, tables)
}

func TestUpdate_SingleStatement(t *testing.T) {
	r := newTestRegistry(t)
	newMemorySession(t, r,
		"CREATE TABLE t (id INTEGER, flag INTEGER)",
		"INSERT INTO t VALUES (1, 0), (2, 0), (3, 0)",
	)
	ctx := context.Background()

	result, err := r.Update(ctx, "mem", "UPDATE t SET flag = 1 WHERE id > :min", []Params{{Named: map[string]any{"min": 1}}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.RowsAffected)
	assert.Empty(t, result.Rows)

	_, err = r.Update(ctx, "mem", "SELECT * FROM t", nil)
	assert.ErrorIs(t, err, ErrNotAnUpdate)

	_, err = r.Update(ctx, "mem", "UPDATE nope SET x = 1", nil)
	assert.ErrorIs(t, err, ErrQueryFailed)

	_, err = r.Update(ctx, "mem", "BEGIN", nil)
	assert.ErrorIs(t, err, ErrUnsupportedQuery)
}

func TestUpdate_BatchIsAtomic(t *testing.T) {
	r := newTestRegistry(t)
	newMemorySession(t, r, "CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)")
	ctx := context.Background()
	insert := "INSERT INTO t (id, name) VALUES (:id, :name)"

	result, err := r.Update(ctx, "mem", insert, []Params{
		{Named: map[string]any{"id": 1, "name": "a"}},
		{Named: map[string]any{"id": 2, "name": "b"}},
		{Named: map[string]any{"id": 3, "name": "c"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.RowsAffected)

	_, err = r.Update(ctx, "mem", insert, []Params{
		{Named: map[string]any{"id": 4, "name": "d"}},
		{Named: map[string]any{"id": 1, "name": "duplicate"}},
		{Named: map[string]any{"id": 5, "name": "e"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQueryFailed)
	assert.Contains(t, err.Error(), "batch entry 1")

	count, err := r.Query(ctx, "mem", "SELECT COUNT(*) FROM t", Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count.Rows[0][0], "failed batch must roll back")

	// A missing parameter in a later entry also aborts the whole batch.
	_, err = r.Update(ctx, "mem", insert, []Params{
		{Named: map[string]any{"id": 6, "name": "f"}},
		{Named: map[string]any{"id": 7}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Contains(t, err.Error(), "batch entry 1")

	count, err = r.Query(ctx, "mem", "SELECT COUNT(*) FROM t", Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count.Rows[0][0])
}

func TestListTablesAndDescribe(t *testing.T) {
	r := newTestRegistry(t)
	newMemorySession(t, r,
		"CREATE TABLE zebra (id INTEGER PRIMARY KEY, name TEXT NOT NULL, note TEXT DEFAULT 'none')",
		"CREATE TABLE apple (x REAL)",
	)
	ctx := context.Background()

	tables, err := r.ListTables(ctx, "mem")
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "zebra"}, tables)

	columns, err := r.Describe(ctx, "mem", "zebra")
	require.NoError(t, err)
	assert.Equal(t, []ColumnInfo{
		{Name: "id", DataType: "INTEGER", Nullable: "YES", Key: "PRI"},
		{Name: "name", DataType: "TEXT", Nullable: "NO"},
		{Name: "note", DataType: "TEXT", Nullable: "YES", Default: "'none'"},
	}, columns)

	_, err = r.Describe(ctx, "mem", "missing")
	assert.ErrorIs(t, err, ErrTableNotFound)

	_, err = r.Describe(ctx, "mem", "")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = r.ListTables(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNormalizeCell(t *testing.T) {
	assert.Equal(t, "text", normalizeCell([]byte("text")))
	assert.Equal(t, []byte{0xff, 0xfe}, normalizeCell([]byte{0xff, 0xfe}))
	assert.Equal(t, int64(7), normalizeCell(7))
	assert.Equal(t, int64(7), normalizeCell(int32(7)))
	assert.Equal(t, float64(1.5), normalizeCell(float32(1.5)))
	assert.Nil(t, normalizeCell(nil))
}

func TestAnnotateBatch(t *testing.T) {
	err := annotateBatch(newError(KindQueryFailed, "UNIQUE constraint failed"), 4)
	assert.Equal(t, "QueryFailed: batch entry 4: UNIQUE constraint failed", err.Error())

	err = annotateBatch(assert.AnError, 0)
	assert.ErrorIs(t, err, ErrQueryFailed)
	assert.ErrorIs(t, err, assert.AnError)
}
