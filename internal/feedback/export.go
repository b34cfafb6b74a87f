package feedback

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"sort"

	"github.com/Veraticus/cardsort/internal/model"
	"github.com/Veraticus/cardsort/internal/store"
	"github.com/Veraticus/cardsort/internal/tabular"
)

// Training split file names.
const (
	TrainFile = "train_master_db.csv"
	TestFile  = "test_master_db.csv"
)

// ErrEmptyStore is returned when there is nothing to export.
var ErrEmptyStore = errors.New("reference store is empty")

// Split describes an exported training split.
type Split struct {
	TrainPath string
	TestPath  string
	Train     int
	Test      int
}

// ExportTrainingData shuffles the reference store with a fixed seed, writes a
// train/test split into dir and marks the ledger as retrained.
func (m *Manager) ExportTrainingData(ctx context.Context, dir string, ratio float64, seed int64) (Split, error) {
	if ratio <= 0 || ratio >= 1 {
		return Split{}, fmt.Errorf("train ratio must be between 0 and 1, got %v", ratio)
	}

	s, err := store.Load(m.cfg.StorePath, m.normalizer, m.logger)
	if err != nil {
		return Split{}, err
	}
	entries := s.Entries()
	if len(entries) == 0 {
		return Split{}, ErrEmptyStore
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	rng.Shuffle(len(entries), func(i, j int) {
		entries[i], entries[j] = entries[j], entries[i]
	})

	cut := int(float64(len(entries)) * ratio)
	split := Split{
		TrainPath: filepath.Join(dir, TrainFile),
		TestPath:  filepath.Join(dir, TestFile),
		Train:     cut,
		Test:      len(entries) - cut,
	}
	if err := saveEntries(split.TrainPath, entries[:cut]); err != nil {
		return Split{}, err
	}
	if err := saveEntries(split.TestPath, entries[cut:]); err != nil {
		return Split{}, err
	}

	if _, err := m.MarkRetrained(ctx); err != nil {
		return Split{}, err
	}

	m.logger.Info("Exported training data",
		"train", split.Train,
		"test", split.Test,
		"dir", dir)
	return split, nil
}

func saveEntries(path string, entries []model.ReferenceEntry) error {
	s := store.New()
	for _, e := range entries {
		s.Upsert(e)
	}
	return s.Save(path)
}

// SelectForFeedback returns the rows a human should confirm: unmatched or
// below the review threshold, least confident first.
func (m *Manager) SelectForFeedback(rows []model.Row) []model.Row {
	var out []model.Row
	for _, r := range rows {
		if !r.Result.Matched() || r.Result.Confidence() < m.cfg.ReviewThreshold {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Result.Confidence() < out[j].Result.Confidence()
	})
	return out
}

// ExportForFeedback writes the rows selected by SelectForFeedback as a
// confirmation template and returns how many were written.
func (m *Manager) ExportForFeedback(path string, rows []model.Row) (int, error) {
	selected := m.SelectForFeedback(rows)
	if err := tabular.WriteFeedbackTemplate(path, selected); err != nil {
		return 0, fmt.Errorf("failed to export feedback template: %w", err)
	}
	m.logger.Info("Exported rows for confirmation", "rows", len(selected), "path", path)
	return len(selected), nil
}
