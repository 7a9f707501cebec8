package database

import (
	"context"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// OrderDirection represents sort direction
type OrderDirection string

const (
	ASC  OrderDirection = "ASC"
	DESC OrderDirection = "DESC"
)

type whereFn func(bun.QueryBuilder) bun.QueryBuilder

// QueryBuilder provides a fluent, type-safe API over bun for a single model.
// Conditions are shared between select, update and delete execution.
type QueryBuilder[T any] struct {
	db bun.IDB

	wheres    []whereFn
	orders    []string
	orderArgs [][]any
	relations []string
	limitVal  int
	offsetVal int
	forUpdate bool
	timeout   time.Duration
}

// Query creates a new QueryBuilder bound to db, which may be a *DB or a bun.Tx
func Query[T any](db bun.IDB) *QueryBuilder[T] {
	return &QueryBuilder[T]{db: db}
}

// Where adds an equality condition
func (q *QueryBuilder[T]) Where(column string, value any) *QueryBuilder[T] {
	return q.WhereOp(column, "=", value)
}

// WhereOp adds a condition with a custom comparison operator
func (q *QueryBuilder[T]) WhereOp(column, operator string, value any) *QueryBuilder[T] {
	q.wheres = append(q.wheres, func(b bun.QueryBuilder) bun.QueryBuilder {
		return b.Where("? "+operator+" ?", bun.Ident(column), value)
	})
	return q
}

// WhereIn adds an IN condition; an empty slice matches nothing
func (q *QueryBuilder[T]) WhereIn(column string, values any) *QueryBuilder[T] {
	q.wheres = append(q.wheres, func(b bun.QueryBuilder) bun.QueryBuilder {
		return b.Where("? IN (?)", bun.Ident(column), bun.In(values))
	})
	return q
}

// WhereNull adds an IS NULL condition
func (q *QueryBuilder[T]) WhereNull(column string) *QueryBuilder[T] {
	q.wheres = append(q.wheres, func(b bun.QueryBuilder) bun.QueryBuilder {
		return b.Where("? IS NULL", bun.Ident(column))
	})
	return q
}

// WhereILike adds a case-insensitive substring match
func (q *QueryBuilder[T]) WhereILike(column, term string) *QueryBuilder[T] {
	pattern := "%" + escapeLike(term) + "%"
	q.wheres = append(q.wheres, func(b bun.QueryBuilder) bun.QueryBuilder {
		return b.Where("? ILIKE ?", bun.Ident(column), pattern)
	})
	return q
}

// WhereRaw adds a raw SQL condition
func (q *QueryBuilder[T]) WhereRaw(sql string, args ...any) *QueryBuilder[T] {
	q.wheres = append(q.wheres, func(b bun.QueryBuilder) bun.QueryBuilder {
		return b.Where(sql, args...)
	})
	return q
}

// OrderBy adds an ORDER BY clause
func (q *QueryBuilder[T]) OrderBy(column string, direction OrderDirection) *QueryBuilder[T] {
	q.orders = append(q.orders, "? "+string(direction))
	q.orderArgs = append(q.orderArgs, []any{bun.Ident(column)})
	return q
}

// Limit sets the maximum number of rows
func (q *QueryBuilder[T]) Limit(limit int) *QueryBuilder[T] {
	q.limitVal = limit
	return q
}

// Offset sets the number of rows to skip
func (q *QueryBuilder[T]) Offset(offset int) *QueryBuilder[T] {
	q.offsetVal = offset
	return q
}

// With preloads a bun relation
func (q *QueryBuilder[T]) With(relation string) *QueryBuilder[T] {
	q.relations = append(q.relations, relation)
	return q
}

// ForUpdate locks the selected rows until the transaction ends
func (q *QueryBuilder[T]) ForUpdate() *QueryBuilder[T] {
	q.forUpdate = true
	return q
}

// Timeout bounds every execution of this builder
func (q *QueryBuilder[T]) Timeout(duration time.Duration) *QueryBuilder[T] {
	q.timeout = duration
	return q
}

func (q *QueryBuilder[T]) applyWheres(b bun.QueryBuilder) bun.QueryBuilder {
	for _, fn := range q.wheres {
		b = fn(b)
	}
	return b
}

func (q *QueryBuilder[T]) buildSelect(model any) *bun.SelectQuery {
	query := q.db.NewSelect().Model(model).ApplyQueryBuilder(q.applyWheres)

	for _, relation := range q.relations {
		query = query.Relation(relation)
	}
	for i, order := range q.orders {
		query = query.OrderExpr(order, q.orderArgs[i]...)
	}
	if q.limitVal > 0 {
		query = query.Limit(q.limitVal)
	}
	if q.offsetVal > 0 {
		query = query.Offset(q.offsetVal)
	}
	if q.forUpdate {
		query = query.For("UPDATE")
	}

	return query
}

func (q *QueryBuilder[T]) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if q.timeout > 0 {
		return context.WithTimeout(ctx, q.timeout)
	}
	return ctx, func() {}
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}
