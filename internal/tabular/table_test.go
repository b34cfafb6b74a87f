package tabular

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/cardsort/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTableStripsBOM(t *testing.T) {
	input := "\uFEFF\"가맹점명\",사용용도\n스타벅스,중식대\n,\n다이소,소모품비,extra\n"

	tbl, err := ReadTable(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"가맹점명", "사용용도"}, tbl.Header)
	assert.Equal(t, 0, tbl.Column("가맹점명"))
	assert.Equal(t, -1, tbl.Column("없음"))
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "소모품비", Cell(tbl.Rows[1], 1))
	assert.Equal(t, "", Cell(tbl.Rows[1], 9))
}

func TestReadTableEmpty(t *testing.T) {
	_, err := ReadTable(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestWriteTableRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, []string{"a", "b"}, [][]string{{"1", "x,y"}}))
	assert.True(t, strings.HasPrefix(buf.String(), bom))

	tbl, err := ReadTable(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tbl.Header)
	assert.Equal(t, [][]string{{"1", "x,y"}}, tbl.Rows)
}

func TestWriteFileAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	require.NoError(t, WriteTableFile(path, []string{"h"}, [][]string{{"v"}}))
	require.NoError(t, WriteTableFile(path, []string{"h"}, [][]string{{"w"}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	tbl, err := ReadTableFile(path)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"w"}}, tbl.Rows)
}

func TestReadTransactionsColumnVariants(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{
			name:  "standard headers",
			input: "결제일자,가맹점명,이용금액\n2024-01-15,스타벅스(강남점),\"12,000원\"\n",
			want:  12000,
		},
		{
			name:  "issuer variant headers",
			input: "승인일자,가맹점명/국가명,청구금액\n2024.01.15,스타벅스(강남점),12000\n",
			want:  12000,
		},
		{
			name:  "date priority",
			input: "일자,결제일자,상호명,거래금액\n2023-12-31,2024-01-15,스타벅스(강남점),-12000\n",
			want:  12000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txns, err := ReadTransactions(strings.NewReader(tt.input))
			require.NoError(t, err)
			require.Len(t, txns, 1)
			assert.Equal(t, "스타벅스(강남점)", txns[0].RawMerchant)
			assert.Equal(t, tt.want, txns[0].Amount)
			assert.Equal(t, "2024-01-15", txns[0].DateString())
			assert.NotEmpty(t, txns[0].ID)
		})
	}
}

func TestReadTransactionsMissingColumn(t *testing.T) {
	_, err := ReadTransactions(strings.NewReader("결제일자,이용금액\n2024-01-15,100\n"))
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "가맹점명")
}

func TestResultsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	date := model.ParseDate("2024-02-01")

	rows := []model.Row{
		{Transaction: model.Transaction{ID: "a", RawMerchant: "스타벅스(역삼점)", Merchant: "스타벅스", Date: date, Amount: 4500}, Result: model.Exact("중식대")},
		{Transaction: model.Transaction{ID: "b", RawMerchant: "ZZZ", Merchant: "ZZZ", Amount: 10}, Result: model.NoMatch()},
		{Transaction: model.Transaction{ID: "c", RawMerchant: "넷플릭스", Merchant: "넷플릭스", Amount: 17000}, Result: model.AIResult("사용료", 0.9, "구독, 영상", true)},
	}
	require.NoError(t, WriteResults(path, rows))

	got, err := ReadResults(path)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "2024-02-01", got[0].DateString())
	assert.Equal(t, model.SourceExact, got[0].Result.Source())
	assert.Equal(t, 1.0, got[0].Result.Confidence())
	assert.False(t, got[1].Result.Matched())
	assert.Equal(t, model.SourceAIRule, got[2].Result.Source())
	assert.Equal(t, "구독, 영상", got[2].Result.Rationale())
	assert.Equal(t, int64(17000), got[2].Amount)
}

func TestReadResultsRejectsBadSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	content := "가맹점명_원본,가맹점명,사용용도,신뢰도,라벨출처\nA,A,세금,0.5,수기\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := ReadResults(path)
	require.ErrorIs(t, err, model.ErrUnknownSource)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadResultsReassignsDuplicateIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	content := "거래ID,가맹점명_원본,가맹점명,사용용도,신뢰도,라벨출처\n" +
		"x1,A,A,중식대,1.00,정확일치\n" +
		"x1,A,A,중식대,1.00,정확일치\n" +
		",B,B,,0.00,미매칭\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	got, err := ReadResults(path)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "x1", got[0].ID)
	assert.NotEqual(t, "x1", got[1].ID)
	assert.NotEmpty(t, got[1].ID)
	assert.NotEmpty(t, got[2].ID)
	assert.NotEqual(t, got[1].ID, got[2].ID)
}

func TestFeedbackTemplateAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.csv")
	rows := []model.Row{
		{Transaction: model.Transaction{RawMerchant: "신규가게(본점)", Merchant: "신규가게"}, Result: model.NoMatch()},
	}
	require.NoError(t, WriteFeedbackTemplate(path, rows))

	entries, err := ReadFeedback(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "신규가게(본점)", entries[0].RawMerchant)
	assert.Empty(t, entries[0].ConfirmedCategory)
}

func TestReadFeedbackRequiresConfirmedColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.csv")
	require.NoError(t, os.WriteFile(path, []byte("가맹점명\nA\n"), 0o600))

	_, err := ReadFeedback(path)
	assert.ErrorIs(t, err, ErrMissingColumn)
}
