package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// RawQuery executes a raw SQL query and scans every row into a slice
func RawQuery[T any](db bun.IDB, ctx context.Context, query string, args ...any) ([]T, error) {
	start := time.Now()
	var data []T

	if err := db.NewRaw(query, args...).Scan(ctx, &data); err != nil {
		return nil, fmt.Errorf("failed to execute raw query: %w (took %v)", err, time.Since(start))
	}

	if data == nil {
		data = []T{}
	}
	return data, nil
}

// RawQueryOne executes a raw SQL query and returns a single result, or nil for no rows
func RawQueryOne[T any](db bun.IDB, ctx context.Context, query string, args ...any) (*T, error) {
	start := time.Now()
	var data T

	if err := db.NewRaw(query, args...).Scan(ctx, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to execute raw query: %w (took %v)", err, time.Since(start))
	}

	return &data, nil
}

// Transaction runs fn inside a transaction. A panic or an error rolls back;
// otherwise the transaction is committed.
func Transaction(ctx context.Context, db bun.IDB, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	return fn(ctx, tx)
}

// Pagination represents pagination parameters
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

// PaginationResult wraps paginated data with metadata
type PaginationResult[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Paginate applies page/pageSize to q and returns the page with the total count
func Paginate[T any](ctx context.Context, q *QueryBuilder[T], page, pageSize int) (*PaginationResult[T], error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	total, err := q.Count(ctx)
	if err != nil {
		return nil, err
	}

	data, err := q.Limit(pageSize).Offset((page - 1) * pageSize).All(ctx)
	if err != nil {
		return nil, err
	}

	return &PaginationResult[T]{
		Data: data,
		Pagination: Pagination{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	}, nil
}

// FindByID loads a record by primary key, returning nil when missing
func FindByID[T any](ctx context.Context, db bun.IDB, id any, relations ...string) (*T, error) {
	q := Query[T](db).WhereRaw("?TableAlias.id = ?", id)
	for _, r := range relations {
		q = q.With(r)
	}
	return q.First(ctx)
}
