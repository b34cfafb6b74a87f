package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Watermark is the feedback log length at the last retrain.
type Watermark struct {
	MarkedAt time.Time
	Count    int
}

// Watermark returns the latest retrain mark, or the zero value if the
// model was never retrained.
func (l *Ledger) Watermark(ctx context.Context) (Watermark, error) {
	var w Watermark
	err := l.db.QueryRowContext(ctx,
		`SELECT feedback_count, marked_at FROM retrain_marks ORDER BY id DESC LIMIT 1`).
		Scan(&w.Count, &w.MarkedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Watermark{}, nil
	}
	if err != nil {
		return Watermark{}, fmt.Errorf("failed to read watermark: %w", err)
	}
	return w, nil
}

// Pending returns the number of feedback rows logged since the watermark.
func (l *Ledger) Pending(ctx context.Context) (int, error) {
	w, err := l.Watermark(ctx)
	if err != nil {
		return 0, err
	}
	n, err := l.FeedbackCount(ctx)
	if err != nil {
		return 0, err
	}
	return max(0, n-w.Count), nil
}

// MarkRetrained moves the watermark to the current log length.
func (l *Ledger) MarkRetrained(ctx context.Context, now time.Time) (Watermark, error) {
	var w Watermark
	err := l.WithTx(ctx, func(tx *Tx) error {
		n, err := tx.FeedbackCount(ctx)
		if err != nil {
			return err
		}
		w = Watermark{Count: n, MarkedAt: now.UTC()}
		if _, err := tx.tx.ExecContext(ctx,
			`INSERT INTO retrain_marks (feedback_count, marked_at) VALUES (?, ?)`,
			w.Count, w.MarkedAt); err != nil {
			return fmt.Errorf("failed to store watermark: %w", err)
		}
		return nil
	})
	if err != nil {
		return Watermark{}, err
	}

	l.logger.Info("Retrain watermark updated", "feedback_count", w.Count)
	return w, nil
}
