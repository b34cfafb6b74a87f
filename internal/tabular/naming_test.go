package tabular

import (
	"testing"
	"time"

	"github.com/Veraticus/cardsort/internal/model"
	"github.com/stretchr/testify/assert"
)

func finalOn(dates ...string) []model.FinalRow {
	var rows []model.FinalRow
	for _, d := range dates {
		rows = append(rows, model.FinalRow{Row: model.Row{Transaction: model.NewTransaction("가게", model.ParseDate(d), 1000)}})
	}
	return rows
}

func TestStatementMonth(t *testing.T) {
	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 3, StatementMonth(finalOn("2024-03-01", "2024-03-15", "2024-04-01"), now))
	assert.Equal(t, 2, StatementMonth(finalOn("2024-05-01", "2024-02-01"), now), "tie picks the earliest month")
	assert.Equal(t, 7, StatementMonth(finalOn("", "garbage"), now))
	assert.Equal(t, 7, StatementMonth(nil, now))
}

func TestFinalFileName(t *testing.T) {
	assert.Equal(t, "법인카드_(3)월_3987.csv", FinalFileName(3, "3987"))
	assert.Equal(t, "out/1월_결과.csv", ExpandMonth("out/{month}월_결과.csv", 1))
}
