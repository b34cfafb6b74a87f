package tabular

import (
	"fmt"
	"io"
	"os"

	"github.com/Veraticus/cardsort/internal/model"
)

// ReadTransactions parses a card statement export. Merchant, date and amount
// columns are located through their known header variants.
func ReadTransactions(r io.Reader) ([]model.Transaction, error) {
	t, err := ReadTable(r)
	if err != nil {
		return nil, err
	}

	merchantCol, err := t.Require(MerchantColumns...)
	if err != nil {
		return nil, err
	}
	dateCol, err := t.Require(DateColumns...)
	if err != nil {
		return nil, err
	}
	amountCol, err := t.Require(AmountColumns...)
	if err != nil {
		return nil, err
	}

	txns := make([]model.Transaction, 0, len(t.Rows))
	for _, row := range t.Rows {
		txns = append(txns, model.NewTransaction(
			Cell(row, merchantCol),
			model.ParseDate(Cell(row, dateCol)),
			model.ParseAmount(Cell(row, amountCol)),
		))
	}
	return txns, nil
}

// ReadTransactionsFile opens path and parses it with ReadTransactions.
func ReadTransactionsFile(path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	txns, err := ReadTransactions(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return txns, nil
}
