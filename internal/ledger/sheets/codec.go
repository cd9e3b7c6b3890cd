package sheets

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/budgetrak/internal/domain"
	"github.com/dvloznov/budgetrak/internal/ledger"
	"github.com/shopspring/decimal"
)

// minCells is Date through Type. Shorter rows are not transactions.
const minCells = 5

// serialEpoch is day zero of spreadsheet serial dates.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// encodeRow lays a row out in ledger.Columns order.
func encodeRow(r ledger.Row) []interface{} {
	return []interface{}{
		r.Date.String(),
		r.Merchant,
		r.Amount.InexactFloat64(),
		r.Category,
		string(r.Type),
		r.Bank,
		r.Account,
		r.Notes,
		r.SourceID,
		r.ID,
	}
}

// decodeRow reads one sheet row. Rows edited by hand may hold serial dates
// or formatted amounts.
func decodeRow(cells []interface{}) (ledger.Row, error) {
	if len(cells) < minCells {
		return ledger.Row{}, fmt.Errorf("row has %d cells, want at least %d", len(cells), minCells)
	}

	date, err := decodeDate(cells[0])
	if err != nil {
		return ledger.Row{}, err
	}
	amount, err := decodeAmount(cells[2])
	if err != nil {
		return ledger.Row{}, err
	}

	r := ledger.Row{
		Transaction: domain.Transaction{
			Date:     date,
			Merchant: cellString(cells, 1),
			Amount:   amount,
			Category: cellString(cells, 3),
			Type:     domain.ParseTransactionType(cellString(cells, 4)),
			SourceID: cellString(cells, 8),
		},
		Bank:    cellString(cells, 5),
		Account: cellString(cells, 6),
		Notes:   cellString(cells, 7),
		ID:      cellString(cells, 9),
	}
	r.Description = r.Notes
	if r.Description == "" {
		r.Description = r.Merchant
	}
	return r, nil
}

func cellString(cells []interface{}, i int) string {
	if i >= len(cells) || cells[i] == nil {
		return ""
	}
	switch v := cells[i].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return decimal.NewFromFloat(v).String()
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func decodeDate(v interface{}) (civil.Date, error) {
	switch d := v.(type) {
	case float64:
		return civil.DateOf(serialEpoch.AddDate(0, 0, int(d))), nil
	case string:
		s := strings.TrimSpace(d)
		if date, err := civil.ParseDate(s); err == nil {
			return date, nil
		}
		if t, err := time.Parse("01/02/2006", s); err == nil {
			return civil.DateOf(t), nil
		}
		return civil.Date{}, fmt.Errorf("invalid date %q", d)
	default:
		return civil.Date{}, fmt.Errorf("invalid date cell %v (%T)", v, v)
	}
}

func decodeAmount(v interface{}) (decimal.Decimal, error) {
	switch a := v.(type) {
	case float64:
		return decimal.NewFromFloat(a), nil
	case string:
		s := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(a))
		if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
			s = "-" + strings.Trim(s, "()")
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid amount %q", a)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("invalid amount cell %v (%T)", v, v)
	}
}

// quoteSheet formats a sheet name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
