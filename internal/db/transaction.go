package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// busyRetry retries writes that lose the lock to another squads process
// sharing the database, such as a `cache resolve` run next to the client.
type busyRetry struct {
	attempts int
	backoff  time.Duration
	maxWait  time.Duration
}

var defaultBusyRetry = busyRetry{attempts: 4, backoff: 25 * time.Millisecond, maxWait: 200 * time.Millisecond}

func (r busyRetry) do(ctx context.Context, fn func() error) error {
	wait := r.backoff
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn()
		if err == nil || !isBusy(err) || attempt >= r.attempts {
			return err
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait = min(wait*2, r.maxWait)
	}
}

// WriteTx runs fn in a transaction, retrying the whole transaction while
// the database is busy.
func (db *DB) WriteTx(ctx context.Context, fn func(*sql.Tx) error) error {
	return defaultBusyRetry.do(ctx, func() error {
		return db.Transaction(ctx, fn)
	})
}

func isBusy(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		code := sqlErr.Code() & 0xff
		return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy")
}
