package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// deleteByID removes one row and reports pgx.ErrNoRows when nothing was deleted.
// Row-level policies make a denied delete indistinguishable from a missing row.
func deleteByID(ctx context.Context, pool *pgxpool.Pool, table, id string) error {
	cmd, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id=$1", table), id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func countRows(ctx context.Context, pool *pgxpool.Pool, query string, args ...any) (int64, error) {
	var count int64
	if err := pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// pageClause renders LIMIT/OFFSET. A negative limit returns every row.
func pageClause(limit, offset, def int) string {
	if limit < 0 {
		return ""
	}
	if limit == 0 {
		limit = def
	}
	if offset < 0 {
		offset = 0
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}

// searchClause appends a case-insensitive LIKE over the given columns.
func searchClause(term string, args *[]any, columns ...string) string {
	trimmed := strings.TrimSpace(term)
	if trimmed == "" {
		return ""
	}
	*args = append(*args, "%"+strings.ToLower(trimmed)+"%")
	placeholder := fmt.Sprintf("$%d", len(*args))
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("LOWER(%s) LIKE %s", col, placeholder)
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}
