package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/cardsort/internal/config"
	"github.com/Veraticus/cardsort/internal/model"
	"github.com/Veraticus/cardsort/internal/normalize"
	"github.com/Veraticus/cardsort/internal/tabular"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "master_db.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestUpsertKeepsKeysUnique(t *testing.T) {
	s := New()

	assert.True(t, s.Upsert(model.ReferenceEntry{Merchant: "스타벅스", Category: "중식대"}))
	assert.True(t, s.Upsert(model.ReferenceEntry{Merchant: "다이소", Category: "소모품비"}))
	assert.False(t, s.Upsert(model.ReferenceEntry{Merchant: "스타벅스", Category: "복리후생비(의료)"}))

	assert.Equal(t, 2, s.Len())
	cat, ok := s.Lookup("스타벅스")
	assert.True(t, ok)
	assert.Equal(t, "복리후생비(의료)", cat)
	assert.Equal(t, []string{"스타벅스", "다이소"}, s.Keys())
	assert.Equal(t, []string{"복리후생비(의료)", "소모품비"}, s.Categories())
}

func TestCloneIsIndependent(t *testing.T) {
	s := New()
	s.Upsert(model.ReferenceEntry{Merchant: "A", Category: "X"})

	c := s.Clone()
	c.Upsert(model.ReferenceEntry{Merchant: "B", Category: "Y"})
	c.Upsert(model.ReferenceEntry{Merchant: "A", Category: "Z"})

	assert.Equal(t, 1, s.Len())
	cat, _ := s.Lookup("A")
	assert.Equal(t, "X", cat)
}

func TestLoad(t *testing.T) {
	n := normalize.New(config.DefaultSynonyms())
	path := writeFile(t, "\uFEFF가맹점명,사용용도,비고\n맥도날드(안산점),중식대,x\n(주)다이소,소모품비,\n맥도날드,중식대,\n")

	s, err := Load(path, n, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, s.Len())
	cat, ok := s.Lookup("맥도날드")
	assert.True(t, ok)
	assert.Equal(t, "중식대", cat)
	_, ok = s.Lookup("다이소")
	assert.True(t, ok)
}

func TestLoadErrors(t *testing.T) {
	n := normalize.New(nil)

	tests := []struct {
		want    error
		name    string
		content string
	}{
		{name: "missing category column", content: "가맹점명\nA\n", want: tabular.ErrMissingColumn},
		{name: "missing key column", content: "상호,사용용도\nA,B\n", want: tabular.ErrMissingColumn},
		{name: "empty file", content: "", want: tabular.ErrMissingColumn},
		{name: "empty category", content: "가맹점명,사용용도\nA,\n", want: ErrInvalidEntry},
		{name: "key normalizes to empty", content: "가맹점명,사용용도\n(본점),세금\n", want: ErrInvalidEntry},
		{name: "conflicting duplicate", content: "가맹점명,사용용도\nA(역삼점),세금\nA,수수료\n", want: ErrDuplicateKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content), n, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"), normalize.New(nil), nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	n := normalize.New(nil)
	path := filepath.Join(t.TempDir(), "db", "master_db.csv")

	s := New()
	s.Upsert(model.ReferenceEntry{Merchant: "GS칼텍스", Category: "차량유지비(주유)"})
	s.Upsert(model.ReferenceEntry{Merchant: "하이패스", Category: "차량유지비(기타)"})
	require.NoError(t, s.Save(path))

	loaded, err := Load(path, n, nil)
	require.NoError(t, err)
	assert.Equal(t, s.Entries(), loaded.Entries())
}

func TestBackup(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, "가맹점명,사용용도\nA,B\n")
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	first, err := Backup(src, dir, now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "master_db_backup_20240506_070809.csv"), first)

	second, err := Backup(src, dir, now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "master_db_backup_20240506_070809_1.csv"), second)

	data, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, "가맹점명,사용용도\nA,B\n", string(data))

	none, err := Backup(filepath.Join(dir, "missing.csv"), dir, now)
	require.NoError(t, err)
	assert.Empty(t, none)
}
