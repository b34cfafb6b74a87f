package tabular

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/cardsort/internal/model"
)

// MonthPlaceholder in an output path is replaced by the statement month.
const MonthPlaceholder = "{month}"

// StatementMonth is the most common transaction month, the earliest month on
// a tie, or now's month when no row has a date.
func StatementMonth(rows []model.FinalRow, now time.Time) int {
	var counts [13]int
	for _, r := range rows {
		if r.Row.Date != nil {
			counts[r.Row.Date.Month()]++
		}
	}
	best := 0
	for m := 1; m <= 12; m++ {
		if counts[m] > counts[best] {
			best = m
		}
	}
	if best == 0 {
		return int(now.Month())
	}
	return best
}

// FinalFileName is the accounting file name for a card's statement month.
func FinalFileName(month int, card string) string {
	return fmt.Sprintf("법인카드_(%d)월_%s.csv", month, card)
}

// ExpandMonth substitutes MonthPlaceholder in path.
func ExpandMonth(path string, month int) string {
	return strings.ReplaceAll(path, MonthPlaceholder, strconv.Itoa(month))
}
