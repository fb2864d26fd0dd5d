package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const defaultMaxRetries = 3

// InTx runs fn inside a READ COMMITTED transaction. Row locks are taken
// explicitly by the Tx methods. The whole unit of work is replayed with
// exponential backoff on serialization failures and deadlocks; any other
// error aborts immediately. fn may therefore run more than once.
func (r *Repository) InTx(ctx context.Context, fn func(Tx) error) error {
	attempt := 0
	op := func() error {
		attempt++
		err := r.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if isTransient(err) && ctx.Err() == nil {
			r.log.WarnContext(ctx, "transient transaction failure, retrying",
				slog.Int("attempt", attempt), slog.String("error", err.Error()))
			return err
		}
		return backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond

	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, r.maxRetries), ctx))
}

func (r *Repository) runTx(ctx context.Context, fn func(Tx) error) (err error) {
	sqlTx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				r.log.ErrorContext(ctx, "rollback failed", slog.String("error", rbErr.Error()))
			}
		}
	}()

	if err = fn(&pgTx{tx: sqlTx}); err != nil {
		return err
	}

	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// pgTx implements Tx on top of a single *sql.Tx.
type pgTx struct {
	tx *sql.Tx
}
