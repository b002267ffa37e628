package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repos work inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store bundles the repos bound to one connection or transaction.
type Store struct {
	Tasks        *TaskRepo
	Contracts    *ContractRepo
	Ledgers      *LedgerRepo
	Observations *ObservationRepo
}

func NewStore(db DBTX) *Store {
	tasks := NewTaskRepo(db)
	return &Store{
		Tasks:        tasks,
		Contracts:    NewContractRepo(db, tasks),
		Ledgers:      NewLedgerRepo(db),
		Observations: NewObservationRepo(db),
	}
}

// WithTx runs fn inside a SQL transaction.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// InTx is WithTx with a Store bound to the transaction.
func InTx(ctx context.Context, db *sql.DB, fn func(s *Store) error) error {
	return WithTx(ctx, db, func(tx *sql.Tx) error {
		return fn(NewStore(tx))
	})
}
