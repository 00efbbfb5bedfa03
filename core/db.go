package core

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// DBExecutor is implemented by both *sqlx.DB and *sqlx.Tx.
type DBExecutor interface {
	sqlx.ExtContext

	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// Transactor runs fn inside a single database transaction.
// Implementations that have no transactions (in-memory stores) call fn with a nil executor.
type Transactor interface {
	WithTx(ctx context.Context, fn func(exec DBExecutor) error) error
}
