package tabular

import (
	"fmt"
	"strconv"

	"github.com/Veraticus/cardsort/internal/model"
)

// ReadFeedback loads human confirmations. Rows with an empty confirmed
// category are kept; filtering them is the feedback loop's job.
func ReadFeedback(path string) ([]model.FeedbackEntry, error) {
	t, err := ReadTableFile(path)
	if err != nil {
		return nil, err
	}

	merchantCol, err := t.Require(append([]string{ColRawMerchant}, MerchantColumns...)...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	confirmedCol, err := t.Require(ColConfirmed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	entries := make([]model.FeedbackEntry, 0, len(t.Rows))
	for _, rec := range t.Rows {
		entries = append(entries, model.FeedbackEntry{
			RawMerchant:       Cell(rec, merchantCol),
			ConfirmedCategory: Cell(rec, confirmedCol),
		})
	}
	return entries, nil
}

var feedbackHeader = []string{
	ColApprovalDate, ColRawMerchant, ColMerchant, ColAmount,
	ColCategory, ColConfidence, ColSource, ColConfirmed,
}

// WriteFeedbackTemplate writes rows for a human to confirm, with an empty
// confirmed-category column to fill in.
func WriteFeedbackTemplate(path string, rows []model.Row) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.DateString(),
			r.RawMerchant,
			r.Merchant,
			strconv.FormatInt(r.Amount, 10),
			r.Result.Category(),
			formatConfidence(r.Result),
			r.Result.Source().String(),
			"",
		})
	}
	return WriteTableFile(path, feedbackHeader, records)
}
