// Package repository implements all database access for the ticket
// inventory and booking system. It uses pgx directly (no ORM); every
// multi-record mutation runs inside a transaction composed by the service
// layer through Store.WithTx.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ticketgrid/ticketgrid/internal/model"
)

// Store owns the connection pool and hands repositories their querier.
// A transaction started by WithTx travels in the context, so repository
// methods called inside the closure automatically join it.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps a pgx pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

type txKey struct{}

// WithTx runs fn inside a transaction. Nested calls join the transaction
// already carried by the context instead of opening a second one.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return storageErr("begin transaction", err)
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return storageErr("commit transaction", err)
	}
	return nil
}

func txFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

// querier is the subset of pgx shared by pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// db returns the transaction from the context when present, otherwise the
// pool.
func (s *Store) db(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return s.pool
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01")
}

// storageErr classifies a low-level database error: transaction conflicts
// become ErrConcurrencyConflict so the service can retry them, everything
// else becomes ErrStorageUnavailable.
func storageErr(op string, err error) error {
	if isSerializationFailure(err) {
		return fmt.Errorf("%s: %w", op, model.ErrConcurrencyConflict)
	}
	return fmt.Errorf("%s: %w: %s", op, model.ErrStorageUnavailable, err)
}
