package ledger

import (
	"context"
	"fmt"
	"time"
)

// Run is one recorded classification run.
type Run struct {
	StartedAt  time.Time
	Input      string
	ID         int64
	Total      int
	Exact      int
	Fuzzy      int
	NGram      int
	AI         int
	Unmatched  int
	AICalls    int
	AIFailures int
	CostUSD    float64
}

// RecordRun stores r and returns its ID.
func (l *Ledger) RecordRun(ctx context.Context, r Run) (int64, error) {
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO classification_runs
			(started_at, input, total, exact, fuzzy, ngram, ai, unmatched, ai_calls, ai_failures, cost_usd)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.StartedAt.UTC(), r.Input, r.Total, r.Exact, r.Fuzzy, r.NGram, r.AI,
		r.Unmatched, r.AICalls, r.AIFailures, r.CostUSD)
	if err != nil {
		return 0, fmt.Errorf("failed to record run: %w", busy(err))
	}
	return res.LastInsertId()
}

// Runs returns up to limit runs, newest first.
func (l *Ledger) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, started_at, input, total, exact, fuzzy, ngram, ai, unmatched, ai_calls, ai_failures, cost_usd
		FROM classification_runs
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.Input, &r.Total, &r.Exact, &r.Fuzzy,
			&r.NGram, &r.AI, &r.Unmatched, &r.AICalls, &r.AIFailures, &r.CostUSD); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
