// Package ofx reads OFX/QFX card statements into transactions.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/Veraticus/cardsort/internal/model"
	"github.com/aclindsa/ofxgo"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// An opening tag alone on its line with its closing bracket missing.
	tagFixRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Statement is the content of one OFX file.
type Statement struct {
	Accounts     []string
	Transactions []model.Transaction
	Skipped      int // credits such as payments and refunds
}

// Parser reads OFX/QFX files.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new OFX parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse reads every bank and credit card statement in r. Only charges are
// returned; credits are counted in Skipped.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (Statement, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Statement{}, fmt.Errorf("failed to read OFX file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Statement{}, err
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocess(string(content))))
	if err != nil {
		return Statement{}, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var st Statement
	accounts := make(map[string]bool)

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok {
			continue
		}
		accounts[string(stmt.BankAcctFrom.AcctID)] = true
		if stmt.BankTranList != nil {
			p.collect(&st, stmt.BankTranList.Transactions)
		}
	}
	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok {
			continue
		}
		accounts[string(stmt.CCAcctFrom.AcctID)] = true
		if stmt.BankTranList != nil {
			p.collect(&st, stmt.BankTranList.Transactions)
		}
	}

	for acct := range accounts {
		if acct != "" {
			st.Accounts = append(st.Accounts, acct)
		}
	}
	sort.Strings(st.Accounts)

	p.logger.Info("Parsed OFX file",
		"transactions", len(st.Transactions),
		"skipped_credits", st.Skipped,
		"accounts", len(st.Accounts))
	return st, nil
}

func (p *Parser) collect(st *Statement, txns []ofxgo.Transaction) {
	for _, t := range txns {
		if t.TrnAmt.Sign() > 0 {
			st.Skipped++
			continue
		}
		st.Transactions = append(st.Transactions, convert(t))
	}
}

func convert(t ofxgo.Transaction) model.Transaction {
	// Fractions of a won are truncated.
	amount, _ := t.TrnAmt.Float64()

	date := t.DtPosted.Time
	return model.NewTransaction(merchantName(t), &date, int64(amount))
}

// merchantName prefers PAYEE, then NAME, then MEMO when NAME is generic.
func merchantName(t ofxgo.Transaction) string {
	if t.Payee != nil && t.Payee.Name != "" {
		return strings.TrimSpace(string(t.Payee.Name))
	}
	name := strings.TrimSpace(string(t.Name))
	if t.Memo != "" && isGeneric(name) {
		name = strings.TrimSpace(string(t.Memo))
	}
	return name
}

func isGeneric(name string) bool {
	switch strings.ToUpper(name) {
	case "", "DEBIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE", "카드결제", "결제":
		return true
	}
	return false
}

// preprocess fixes formatting issues common in issuer exports.
func preprocess(content string) string {
	content = strings.TrimPrefix(content, "\uFEFF")
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return tagFixRegex.ReplaceAllString(content, "$1>")
}
