package advisor

import (
	"fmt"
	"sort"

	"github.com/dvloznov/budgetrak/internal/ledger"
	"github.com/shopspring/decimal"
)

// MonthTotal is the signed sum of one calendar month.
type MonthTotal struct {
	Month string          `json:"month"` // YYYY-MM
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
	// Change is the difference to the previous month in the report.
	Change *decimal.Decimal `json:"change,omitempty"`
}

// TrendReport holds monthly totals, oldest first.
type TrendReport struct {
	Category string       `json:"category,omitempty"`
	Months   []MonthTotal `json:"months"`
	Analysis string       `json:"analysis,omitempty"`
}

// MonthlyTotals groups rows by calendar month and computes deltas between
// consecutive months present in the data.
func MonthlyTotals(rows []ledger.Row) []MonthTotal {
	byMonth := map[string]*MonthTotal{}
	for _, r := range rows {
		key := fmt.Sprintf("%04d-%02d", r.Date.Year, int(r.Date.Month))
		mt, ok := byMonth[key]
		if !ok {
			mt = &MonthTotal{Month: key, Total: decimal.Zero}
			byMonth[key] = mt
		}
		mt.Total = mt.Total.Add(r.Amount)
		mt.Count++
	}

	months := make([]MonthTotal, 0, len(byMonth))
	for _, mt := range byMonth {
		months = append(months, *mt)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })

	for i := 1; i < len(months); i++ {
		change := months[i].Total.Sub(months[i-1].Total)
		months[i].Change = &change
	}
	return months
}
