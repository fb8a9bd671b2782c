package main

import (
	"context"
	"strings"
	"time"
)

// Query runs a row-returning statement on the session named by handle.
func (r *Registry) Query(ctx context.Context, handle, sqlText string, params Params) (*QueryResult, error) {
	var result *QueryResult
	err := r.withSession(handle, func(s *Session) error {
		start := time.Now()
		res, err := s.backend.Query(ctx, sqlText, params)
		if err != nil {
			r.logger.Debug("Query failed", "handle", handle, "kind", KindOf(err), "error", err)
			return err
		}
		r.logger.Debug("Query completed", "handle", handle, "rows", res.RowCount,
			"truncated", res.Truncated, "duration", time.Since(start))
		result = res
		return nil
	})
	return result, err
}

// Update runs a mutating statement once per parameter set. An empty batch
// runs the statement once without parameters.
func (r *Registry) Update(ctx context.Context, handle, sqlText string, batch []Params) (*QueryResult, error) {
	var result *QueryResult
	err := r.withSession(handle, func(s *Session) error {
		start := time.Now()
		res, err := s.backend.Update(ctx, sqlText, batch)
		if err != nil {
			r.logger.Debug("Update failed", "handle", handle, "kind", KindOf(err), "error", err)
			return err
		}
		r.logger.Debug("Update completed", "handle", handle, "rows_affected", res.RowsAffected,
			"batch", len(batch), "duration", time.Since(start))
		result = res
		return nil
	})
	return result, err
}

// ListTables returns the user tables of the session's database.
func (r *Registry) ListTables(ctx context.Context, handle string) ([]string, error) {
	var tables []string
	err := r.withSession(handle, func(s *Session) error {
		var err error
		tables, err = s.backend.Tables(ctx)
		return err
	})
	return tables, err
}

// Describe returns the columns of one table.
func (r *Registry) Describe(ctx context.Context, handle, table string) ([]ColumnInfo, error) {
	if strings.TrimSpace(table) == "" {
		return nil, newError(KindInvalidArgument, "table is required")
	}
	var columns []ColumnInfo
	err := r.withSession(handle, func(s *Session) error {
		var err error
		columns, err = s.backend.Describe(ctx, table)
		return err
	})
	return columns, err
}
