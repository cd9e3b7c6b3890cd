package ledger

import (
	"github.com/dvloznov/budgetrak/internal/domain"
	"github.com/google/uuid"
)

// Columns is the column order used by tabular backends.
var Columns = []string{"Date", "Merchant", "Amount", "Category", "Type", "Bank", "Account", "Notes", "Source", "ID"}

// Row is one saved transaction plus the statement it came from.
type Row struct {
	ID string `json:"id"`
	domain.Transaction
	Bank    string `json:"bank,omitempty"`
	Account string `json:"account,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// RowsFromStatement assigns ids and copies the account header onto each row.
// Notes carries the raw statement description.
func RowsFromStatement(account domain.AccountInfo, txs []domain.Transaction) []Row {
	rows := make([]Row, 0, len(txs))
	for _, tx := range txs {
		if tx.Merchant == "" {
			tx.Merchant = tx.Description
		}
		rows = append(rows, Row{
			ID:          uuid.NewString(),
			Transaction: tx,
			Bank:        account.Bank,
			Account:     account.AccountNumber,
			Notes:       tx.Description,
		})
	}
	return rows
}
