// Package ledger persists the feedback log, the retrain watermark and the
// history of classification runs in SQLite.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/cardsort/internal/common"
	"github.com/Veraticus/cardsort/internal/model"
	"github.com/mattn/go-sqlite3"
)

// MemoryPath opens a private in-memory ledger.
const MemoryPath = ":memory:"

var (
	// ErrEmptyPath is returned when no ledger path is configured.
	ErrEmptyPath = errors.New("ledger path is empty")
	// ErrInvalidFeedback is returned for a log entry missing its merchant or category.
	ErrInvalidFeedback = errors.New("invalid feedback entry")
)

// Ledger is the SQLite-backed record of feedback and runs.
type Ledger struct {
	db     *sql.DB
	logger *slog.Logger
	retry  common.RetryOptions
}

// Open opens (creating if needed) and migrates the ledger at path.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Ledger, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if logger == nil {
		logger = slog.Default()
	}

	// _txlock=immediate: every BeginTx takes the write lock up front.
	dsn := MemoryPath + "?_txlock=immediate"
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	// An in-memory database lives only as long as its single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping ledger: %w", err)
	}

	l := &Ledger{
		db:     db,
		logger: logger,
		retry: common.RetryOptions{
			MaxAttempts:  5,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2,
		},
	}
	if err := l.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Tx is an exclusive write transaction.
type Tx struct {
	tx *sql.Tx
}

// WithTx runs fn inside an exclusive transaction, committing when fn
// returns nil. Starting the transaction is retried while another writer
// holds the lock.
func (l *Ledger) WithTx(ctx context.Context, fn func(*Tx) error) error {
	var tx *sql.Tx
	err := common.WithRetry(ctx, func() error {
		var beginErr error
		tx, beginErr = l.db.BeginTx(ctx, nil)
		return busy(beginErr)
	}, l.retry)
	if err != nil {
		return fmt.Errorf("failed to begin ledger transaction: %w", err)
	}

	if err := fn(&Tx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger transaction: %w", err)
	}
	return nil
}

// AppendFeedback adds entries to the append-only feedback log.
func (t *Tx) AppendFeedback(ctx context.Context, entries []model.LoggedFeedback) error {
	stmt, err := t.tx.PrepareContext(ctx,
		`INSERT INTO feedback_log (raw_merchant, merchant, category, recorded_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare feedback insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, e := range entries {
		if e.RawMerchant == "" || e.ConfirmedCategory == "" {
			return fmt.Errorf("%w: entry %d", ErrInvalidFeedback, i)
		}
		if _, err := stmt.ExecContext(ctx, e.RawMerchant, e.Merchant, e.ConfirmedCategory, e.RecordedAt.UTC()); err != nil {
			return fmt.Errorf("failed to append feedback: %w", err)
		}
	}
	return nil
}

// FeedbackCount returns the number of logged feedback rows.
func (t *Tx) FeedbackCount(ctx context.Context) (int, error) {
	return countFeedback(ctx, t.tx)
}

// FeedbackCount returns the number of logged feedback rows.
func (l *Ledger) FeedbackCount(ctx context.Context) (int, error) {
	return countFeedback(ctx, l.db)
}

// Feedback returns the whole log, oldest first.
func (l *Ledger) Feedback(ctx context.Context) ([]model.LoggedFeedback, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, raw_merchant, merchant, category, recorded_at FROM feedback_log ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.LoggedFeedback
	for rows.Next() {
		var f model.LoggedFeedback
		if err := rows.Scan(&f.ID, &f.RawMerchant, &f.Merchant, &f.ConfirmedCategory, &f.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func countFeedback(ctx context.Context, q queryer) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM feedback_log`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count feedback: %w", err)
	}
	return n, nil
}

func busy(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("%w: %w", common.ErrBusy, err)
	}
	return err
}
