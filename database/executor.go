package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// All executes the query and returns all matching records with automatic retry
func (q *QueryBuilder[T]) All(ctx context.Context) ([]T, error) {
	start := time.Now()
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	var data []T
	err := WithRetry(ctx, func() error {
		data = nil
		return q.buildSelect(&data).Scan(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute select query: %w (took %v)", err, time.Since(start))
	}

	if data == nil {
		data = []T{}
	}
	return data, nil
}

// First returns the first matching record, or nil when nothing matches
func (q *QueryBuilder[T]) First(ctx context.Context) (*T, error) {
	start := time.Now()
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	data := new(T)
	err := WithRetry(ctx, func() error {
		return q.buildSelect(data).Limit(1).Scan(ctx)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to execute first query: %w (took %v)", err, time.Since(start))
	}

	return data, nil
}

// Count returns the number of matching records
func (q *QueryBuilder[T]) Count(ctx context.Context) (int, error) {
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	var count int
	err := WithRetry(ctx, func() error {
		var err error
		count, err = q.db.NewSelect().Model((*T)(nil)).ApplyQueryBuilder(q.applyWheres).Count(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to execute count query: %w", err)
	}

	return count, nil
}

// Exists reports whether any record matches
func (q *QueryBuilder[T]) Exists(ctx context.Context) (bool, error) {
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	var exists bool
	err := WithRetry(ctx, func() error {
		var err error
		exists, err = q.db.NewSelect().Model((*T)(nil)).ApplyQueryBuilder(q.applyWheres).Exists(ctx)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to execute exists query: %w", err)
	}

	return exists, nil
}

// Insert inserts data and scans generated columns back into it.
// Inserts are not retried.
func (q *QueryBuilder[T]) Insert(ctx context.Context, data *T) (*T, error) {
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	if _, err := q.db.NewInsert().Model(data).Returning("*").Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to execute insert query: %w", err)
	}

	return data, nil
}

// UpdateColumns writes the named columns of data to every matching row and
// returns the first updated row, or nil when nothing matched.
func (q *QueryBuilder[T]) UpdateColumns(ctx context.Context, data *T, columns ...string) (*T, error) {
	if len(q.wheres) == 0 {
		return nil, errors.New("refusing to update without conditions")
	}

	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	var updated []T
	err := q.db.NewUpdate().
		Model(data).
		Column(columns...).
		ApplyQueryBuilder(q.applyWheres).
		Returning("*").
		Scan(ctx, &updated)
	if err != nil {
		return nil, fmt.Errorf("failed to execute update query: %w", err)
	}
	if len(updated) == 0 {
		return nil, nil
	}

	return &updated[0], nil
}

// Delete removes every matching row and returns the affected count
func (q *QueryBuilder[T]) Delete(ctx context.Context) (int, error) {
	if len(q.wheres) == 0 {
		return 0, errors.New("refusing to delete without conditions")
	}

	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	res, err := q.db.NewDelete().Model((*T)(nil)).ApplyQueryBuilder(q.applyWheres).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to execute delete query: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}
