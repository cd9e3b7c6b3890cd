package advisor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dvloznov/budgetrak/internal/ledger"
	"github.com/shopspring/decimal"
)

// DuplicateCharge is the same charge seen more than once on one day.
type DuplicateCharge struct {
	Date     string          `json:"date"`
	Merchant string          `json:"merchant"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
	RowIDs   []string        `json:"row_ids"`
}

// RecurringCharge is a fixed amount charged by one merchant in several months.
type RecurringCharge struct {
	Merchant   string          `json:"merchant"`
	Amount     decimal.Decimal `json:"amount"`
	Months     []string        `json:"months"`
	AnnualCost decimal.Decimal `json:"annual_cost"`
}

// SavingsReport combines deterministic findings with the model's analysis.
type SavingsReport struct {
	Summary    *Summary          `json:"summary"`
	Duplicates []DuplicateCharge `json:"duplicates"`
	Recurring  []RecurringCharge `json:"recurring"`
	Analysis   string            `json:"analysis,omitempty"`
}

var twelve = decimal.NewFromInt(12)

func chargeKey(r ledger.Row) string {
	return strings.ToLower(strings.TrimSpace(r.Merchant)) + "|" + r.Amount.String()
}

// FindDuplicates groups spending rows with the same date, merchant and amount.
func FindDuplicates(rows []ledger.Row) []DuplicateCharge {
	groups := map[string]*DuplicateCharge{}
	var order []string
	for _, r := range rows {
		if !r.IsSpending() {
			continue
		}
		key := r.Date.String() + "|" + chargeKey(r)
		d, ok := groups[key]
		if !ok {
			d = &DuplicateCharge{Date: r.Date.String(), Merchant: r.Merchant, Amount: r.Amount}
			groups[key] = d
			order = append(order, key)
		}
		d.Count++
		d.RowIDs = append(d.RowIDs, r.ID)
	}

	out := []DuplicateCharge{}
	for _, key := range order {
		if groups[key].Count > 1 {
			out = append(out, *groups[key])
		}
	}
	return out
}

// FindRecurring returns merchants charging the same amount in at least two
// calendar months, most expensive per year first.
func FindRecurring(rows []ledger.Row) []RecurringCharge {
	type acc struct {
		merchant string
		amount   decimal.Decimal
		months   map[string]bool
	}
	groups := map[string]*acc{}
	for _, r := range rows {
		if !r.IsSpending() || strings.TrimSpace(r.Merchant) == "" {
			continue
		}
		key := chargeKey(r)
		a, ok := groups[key]
		if !ok {
			a = &acc{merchant: r.Merchant, amount: r.Amount, months: map[string]bool{}}
			groups[key] = a
		}
		a.months[fmt.Sprintf("%04d-%02d", r.Date.Year, int(r.Date.Month))] = true
	}

	out := []RecurringCharge{}
	for _, a := range groups {
		if len(a.months) < 2 {
			continue
		}
		months := make([]string, 0, len(a.months))
		for m := range a.months {
			months = append(months, m)
		}
		sort.Strings(months)
		out = append(out, RecurringCharge{
			Merchant:   a.merchant,
			Amount:     a.amount,
			Months:     months,
			AnnualCost: a.amount.Mul(twelve),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].AnnualCost.Cmp(out[j].AnnualCost); c != 0 {
			return c > 0
		}
		return out[i].Merchant < out[j].Merchant
	})
	return out
}
