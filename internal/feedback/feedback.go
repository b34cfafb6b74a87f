// Package feedback folds human-confirmed categories back into the
// reference store and decides when the reference set is due for retraining.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/cardsort/internal/ledger"
	"github.com/Veraticus/cardsort/internal/model"
	"github.com/Veraticus/cardsort/internal/store"
)

// NoConfirmedMessage is reported when no row carries a confirmed category.
const NoConfirmedMessage = "확정용도가 입력된 항목이 없습니다"

// Config locates the reference store and tunes the loop.
type Config struct {
	StorePath        string
	BackupDir        string
	RetrainThreshold int
	ReviewThreshold  float64 // rows below this confidence are exported for confirmation
}

// Result summarizes one Collect call.
type Result struct {
	Message        string
	BackupPath     string
	Errors         []string
	Logged         int
	NewEntries     int
	UpdatedEntries int
}

// Manager runs the feedback loop against one store file and ledger.
type Manager struct {
	ledger     *ledger.Ledger
	normalizer store.Normalizer
	logger     *slog.Logger
	now        func() time.Time
	cfg        Config
}

// New creates a Manager.
func New(l *ledger.Ledger, n store.Normalizer, cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RetrainThreshold <= 0 {
		cfg.RetrainThreshold = 50
	}
	if cfg.ReviewThreshold <= 0 {
		cfg.ReviewThreshold = 0.8
	}
	return &Manager{
		ledger:     l,
		normalizer: n,
		logger:     logger,
		now:        time.Now,
		cfg:        cfg,
	}
}

// Collect logs every confirmed entry and, when autoUpdate is set, upserts
// them into the reference store. The log append and the store rewrite share
// one exclusive ledger transaction.
func (m *Manager) Collect(ctx context.Context, entries []model.FeedbackEntry, autoUpdate bool) (Result, error) {
	var res Result
	now := m.now()

	logged := make([]model.LoggedFeedback, 0, len(entries))
	for _, e := range entries {
		category := strings.TrimSpace(e.ConfirmedCategory)
		if category == "" {
			continue
		}
		raw := strings.TrimSpace(e.RawMerchant)
		if raw == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("가맹점명이 비어 있습니다 (확정용도 %q)", category))
			continue
		}
		logged = append(logged, model.LoggedFeedback{
			RawMerchant:       raw,
			Merchant:          m.normalizer.Normalize(raw),
			ConfirmedCategory: category,
			RecordedAt:        now,
		})
	}
	if len(logged) == 0 {
		if len(res.Errors) == 0 {
			res.Message = NoConfirmedMessage
			res.Errors = append(res.Errors, NoConfirmedMessage)
		}
		return res, nil
	}

	err := m.ledger.WithTx(ctx, func(tx *ledger.Tx) error {
		if err := tx.AppendFeedback(ctx, logged); err != nil {
			return err
		}
		res.Logged = len(logged)
		if !autoUpdate {
			return nil
		}
		return m.update(&res, logged, now)
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to collect feedback: %w", err)
	}

	m.logger.Info("Collected feedback",
		"logged", res.Logged,
		"new", res.NewEntries,
		"updated", res.UpdatedEntries,
		"errors", len(res.Errors),
		"auto_update", autoUpdate)
	return res, nil
}

func (m *Manager) update(res *Result, logged []model.LoggedFeedback, now time.Time) error {
	s, err := store.Load(m.cfg.StorePath, m.normalizer, m.logger)
	if errors.Is(err, store.ErrNotFound) {
		s = store.New()
	} else if err != nil {
		return err
	}

	changed := false
	for _, f := range logged {
		if f.Merchant == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("정규화 후 가맹점명이 비어 있습니다: %q", f.RawMerchant))
			continue
		}
		if s.Upsert(model.ReferenceEntry{Merchant: f.Merchant, Category: f.ConfirmedCategory}) {
			res.NewEntries++
		} else {
			res.UpdatedEntries++
		}
		changed = true
	}
	if !changed {
		return nil
	}

	backup, err := store.Backup(m.cfg.StorePath, m.cfg.BackupDir, now)
	if err != nil {
		return err
	}
	res.BackupPath = backup
	return s.Save(m.cfg.StorePath)
}

// RetrainDue reports whether enough feedback arrived since the last retrain.
func (m *Manager) RetrainDue(ctx context.Context) (bool, error) {
	pending, err := m.ledger.Pending(ctx)
	if err != nil {
		return false, err
	}
	return pending >= m.cfg.RetrainThreshold, nil
}

// MarkRetrained moves the retrain watermark to the current log length.
func (m *Manager) MarkRetrained(ctx context.Context) (ledger.Watermark, error) {
	return m.ledger.MarkRetrained(ctx, m.now())
}
