package store

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/cardsort/internal/model"
	"github.com/Veraticus/cardsort/internal/tabular"
)

// Column headers of the reference file.
const (
	KeyColumn      = "가맹점명"
	CategoryColumn = "사용용도"
)

var (
	// ErrNotFound is returned when the reference file does not exist.
	ErrNotFound = errors.New("reference file not found")
	// ErrInvalidEntry is returned for rows with an empty key or category.
	ErrInvalidEntry = errors.New("invalid reference entry")
	// ErrDuplicateKey is returned when two rows normalize to the same key with different categories.
	ErrDuplicateKey = errors.New("conflicting duplicate merchant")
)

// Normalizer canonicalizes merchant keys on load.
type Normalizer interface {
	Normalize(raw string) string
}

// Load reads the reference file at path, normalizing every key.
// Identical duplicates are merged with a warning; conflicting ones fail.
func Load(path string, n Normalizer, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	t, err := tabular.ReadTableFile(path)
	if err != nil {
		if errors.Is(err, tabular.ErrEmptyFile) {
			return nil, fmt.Errorf("%w: %s has no header", tabular.ErrMissingColumn, path)
		}
		return nil, err
	}

	keyCol, err := t.Require(KeyColumn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	catCol, err := t.Require(CategoryColumn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	s := New()
	firstLine := make(map[string]int)
	for i, row := range t.Rows {
		line := i + 2
		raw := tabular.Cell(row, keyCol)
		category := tabular.Cell(row, catCol)

		key := n.Normalize(raw)
		if key == "" || category == "" {
			return nil, fmt.Errorf("%w: %s line %d (merchant %q, category %q)", ErrInvalidEntry, path, line, raw, category)
		}

		if existing, ok := s.Lookup(key); ok {
			if existing != category {
				return nil, fmt.Errorf("%w: %q is %q on line %d and %q on line %d",
					ErrDuplicateKey, key, existing, firstLine[key], category, line)
			}
			logger.Warn("Merged duplicate reference entry",
				"merchant", key,
				"first_line", firstLine[key],
				"line", line)
			continue
		}

		s.Upsert(model.ReferenceEntry{Merchant: key, Category: category})
		firstLine[key] = line
	}

	logger.Debug("Loaded reference store", "path", path, "entries", s.Len())
	return s, nil
}

// Save atomically replaces path with the full table.
func (s *Store) Save(path string) error {
	rows := make([][]string, 0, len(s.entries))
	for _, e := range s.entries {
		rows = append(rows, []string{e.Merchant, e.Category})
	}
	if err := tabular.WriteTableFile(path, []string{KeyColumn, CategoryColumn}, rows); err != nil {
		return fmt.Errorf("failed to save reference store: %w", err)
	}
	return nil
}

// BackupName is the file name of a backup taken at now.
func BackupName(now time.Time) string {
	return "master_db_backup_" + now.Format("20060102_150405") + ".csv"
}

// Backup copies the on-disk file at path into dir. It returns the backup path,
// or "" when there was no prior file. Existing backups are never overwritten.
func Backup(path, dir string, now time.Time) (string, error) {
	src, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to open %s for backup: %w", path, err)
	}
	defer func() { _ = src.Close() }()

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	base := BackupName(now)
	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]

	for n := 0; ; n++ {
		name := base
		if n > 0 {
			name = fmt.Sprintf("%s_%d%s", stem, n, ext)
		}
		dst := filepath.Join(dir, name)

		f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create backup %s: %w", dst, err)
		}

		if _, err := io.Copy(f, src); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("failed to write backup %s: %w", dst, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to close backup %s: %w", dst, err)
		}
		return dst, nil
	}
}
