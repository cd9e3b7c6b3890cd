package domain

import (
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// TransactionType says which way money moved.
type TransactionType string

const (
	TypeDebit  TransactionType = "debit"
	TypeCredit TransactionType = "credit"
)

// ParseTransactionType accepts debit/credit in any case, plus the common
// statement column names. Unknown values return "".
func ParseTransactionType(s string) TransactionType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debit", "withdrawal", "paid out", "out":
		return TypeDebit
	case "credit", "deposit", "paid in", "in":
		return TypeCredit
	}
	return ""
}

// Transaction is one movement of money read from a statement.
//
// Amount is signed: positive is money out (a purchase or payment),
// negative is money in (income, refunds, transfers received).
type Transaction struct {
	Date        civil.Date      `json:"date"`
	Merchant    string          `json:"merchant"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category,omitempty"`
	Type        TransactionType `json:"type,omitempty"`
	SourceID    string          `json:"source_id,omitempty"`
}

// IsSpending reports whether the transaction takes money out.
func (t Transaction) IsSpending() bool {
	return t.Amount.IsPositive()
}

// NormalizeSign makes Amount and Type agree.
// When Type is set the sign follows it, otherwise Type is derived from the sign.
func (t *Transaction) NormalizeSign() {
	switch t.Type {
	case TypeDebit:
		t.Amount = t.Amount.Abs()
	case TypeCredit:
		t.Amount = t.Amount.Abs().Neg()
	default:
		if t.Amount.IsNegative() {
			t.Type = TypeCredit
		} else {
			t.Type = TypeDebit
		}
	}
}

// AccountInfo is the statement header. Every field is optional.
type AccountInfo struct {
	Bank             string           `json:"bank,omitempty"`
	AccountNumber    string           `json:"account_number,omitempty"`
	PeriodStart      *civil.Date      `json:"statement_period_start,omitempty"`
	PeriodEnd        *civil.Date      `json:"statement_period_end,omitempty"`
	BeginningBalance *decimal.Decimal `json:"beginning_balance,omitempty"`
	EndingBalance    *decimal.Decimal `json:"ending_balance,omitempty"`
}

// Statement is the parsed content of one bank statement document.
type Statement struct {
	SourceID     string        `json:"source_id,omitempty"`
	Account      AccountInfo   `json:"account_info"`
	Transactions []Transaction `json:"transactions"`
}
