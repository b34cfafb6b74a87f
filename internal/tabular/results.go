package tabular

import (
	"fmt"
	"strconv"

	"github.com/Veraticus/cardsort/internal/model"
	"github.com/google/uuid"
)

var resultHeader = []string{
	ColID, ColApprovalDate, ColRawMerchant, ColMerchant, ColAmount,
	ColCategory, ColConfidence, ColSource, ColRationale,
}

// WriteResults writes classified rows in input order.
func WriteResults(path string, rows []model.Row) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.ID,
			r.DateString(),
			r.RawMerchant,
			r.Merchant,
			strconv.FormatInt(r.Amount, 10),
			r.Result.Category(),
			formatConfidence(r.Result),
			r.Result.Source().String(),
			r.Result.Rationale(),
		})
	}
	return WriteTableFile(path, resultHeader, records)
}

// ReadResults loads a file produced by WriteResults. Rows without an ID, or
// repeating an earlier row's ID, get a fresh one so the review stage can still
// correlate them.
func ReadResults(path string) ([]model.Row, error) {
	t, err := ReadTableFile(path)
	if err != nil {
		return nil, err
	}

	cols := map[string]int{}
	for _, name := range []string{ColRawMerchant, ColMerchant, ColCategory, ColConfidence, ColSource} {
		i, err := t.Require(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		cols[name] = i
	}
	idCol := t.Column(ColID)
	dateCol := t.Column(DateColumns...)
	amountCol := t.Column(AmountColumns...)
	rationaleCol := t.Column(ColRationale)

	rows := make([]model.Row, 0, len(t.Rows))
	seen := make(map[string]struct{}, len(t.Rows))
	for n, rec := range t.Rows {
		line := n + 2

		src, err := model.ParseSource(Cell(rec, cols[ColSource]))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		conf := 0.0
		if s := Cell(rec, cols[ColConfidence]); s != "" {
			conf, err = strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: invalid confidence %q: %w", path, line, s, err)
			}
		}
		result, err := model.RestoreResult(Cell(rec, cols[ColCategory]), conf, src, Cell(rec, rationaleCol))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}

		id := Cell(rec, idCol)
		if _, dup := seen[id]; id == "" || dup {
			id = uuid.NewString()
		}
		seen[id] = struct{}{}
		rows = append(rows, model.Row{
			Transaction: model.Transaction{
				ID:          id,
				RawMerchant: Cell(rec, cols[ColRawMerchant]),
				Merchant:    Cell(rec, cols[ColMerchant]),
				Date:        model.ParseDate(Cell(rec, dateCol)),
				Amount:      model.ParseAmount(Cell(rec, amountCol)),
			},
			Result: result,
		})
	}
	return rows, nil
}

var finalHeader = []string{ColDate, ColMerchant, ColAmount, ColCategory, ColConfidence, ColStatus, ColReviewNote}

// WriteFinal writes the reviewed output handed to accounting.
func WriteFinal(path string, rows []model.FinalRow) error {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Row.DateString(),
			r.Row.RawMerchant,
			strconv.FormatInt(r.Row.Amount, 10),
			r.FinalCategory,
			strconv.FormatFloat(r.FinalConfidence, 'f', 2, 64),
			r.Status.String(),
			r.Reason,
		})
	}
	return WriteTableFile(path, finalHeader, records)
}

func formatConfidence(r model.Result) string {
	if !r.Matched() {
		return "0.00"
	}
	return strconv.FormatFloat(r.Confidence(), 'f', 2, 64)
}
