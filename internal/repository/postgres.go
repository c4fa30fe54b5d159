package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/internal/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
)

var errReadOnly = errors.New("write attempted in read-only unit of work")

// PgOptions tunes lock waits and conflict retries.
type PgOptions struct {
	LockTimeout time.Duration
	MaxAttempts int
}

// PgStore is the Postgres store of record.
type PgStore struct {
	db   *pgxpool.Pool
	opts PgOptions
}

func NewPgStore(db *pgxpool.Pool, opts PgOptions) *PgStore {
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 2 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	return &PgStore{db: db, opts: opts}
}

func (s *PgStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PgStore) Close() {
	s.db.Close()
}

// WithTx runs fn in a READ COMMITTED transaction. Rows are locked with
// SELECT ... FOR UPDATE under a lock_timeout; serialization failures and
// deadlocks are retried with backoff.
func (s *PgStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, false, fn)
}

// View runs fn in a REPEATABLE READ READ ONLY transaction so every read
// sees the same snapshot.
func (s *PgStore) View(ctx context.Context, fn func(tx Tx) error) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, true, fn)
}

func (s *PgStore) run(ctx context.Context, opts pgx.TxOptions, readOnly bool, fn func(tx Tx) error) error {
	retryDelay := 25 * time.Millisecond
	for attempt := 0; attempt < s.opts.MaxAttempts; attempt++ {
		err := s.attempt(ctx, opts, readOnly, fn)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return mapError(err)
		}
		logger.Debug("ledger conflict, retrying", "attempt", attempt+1, "error", err)
		if attempt == s.opts.MaxAttempts-1 {
			break
		}
		if err := sleepWithContext(ctx, retryDelay); err != nil {
			return err
		}
		if retryDelay < 400*time.Millisecond {
			retryDelay *= 2
		}
	}
	return domain.ErrBusy
}

func (s *PgStore) attempt(ctx context.Context, opts pgx.TxOptions, readOnly bool, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// SET LOCAL does not take bind parameters
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.opts.LockTimeout.Milliseconds())); err != nil {
		return err
	}

	if err := fn(&pgTx{tx: tx, readOnly: readOnly}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
}

// mapError keeps domain errors and context cancellation as they are and
// folds everything else into domain.ErrStoreUnavailable.
func mapError(err error) error {
	if domain.IsUserError(err) || errors.Is(err, domain.ErrSupplyUnderflow) ||
		errors.Is(err, domain.ErrBusy) || errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return domain.ErrBusy
	}
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// pgTx implements Tx on top of one pgx transaction.
type pgTx struct {
	tx       pgx.Tx
	readOnly bool
}

func (t *pgTx) writable() error {
	if t.readOnly {
		return errReadOnly
	}
	return nil
}

// exists runs a SELECT EXISTS(...) query.
func (t *pgTx) exists(ctx context.Context, sql string, args ...any) (bool, error) {
	var ok bool
	if err := t.tx.QueryRow(ctx, sql, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("exists check: %w", err)
	}
	return ok, nil
}
