package advisor

import (
	"encoding/json"
	"sort"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/budgetrak/internal/apperr"
	"github.com/dvloznov/budgetrak/internal/domain"
	"github.com/dvloznov/budgetrak/internal/ledger"
	"github.com/shopspring/decimal"
)

// Period is an inclusive date window. Zero bounds are open.
type Period struct {
	Start civil.Date
	End   civil.Date
}

// MarshalJSON leaves open bounds out.
func (p Period) MarshalJSON() ([]byte, error) {
	out := map[string]string{}
	if !p.Start.IsZero() {
		out["start"] = p.Start.String()
	}
	if !p.End.IsZero() {
		out["end"] = p.End.String()
	}
	return json.Marshal(out)
}

// Validate rejects a window that ends before it starts.
func (p Period) Validate() error {
	if !p.Start.IsZero() && !p.End.IsZero() && p.End.Before(p.Start) {
		return apperr.Invalidf("advisor.Period", "end date %s is before start date %s", p.End, p.Start)
	}
	return nil
}

// Filter returns the ledger filter for the window.
func (p Period) Filter() ledger.Filter {
	return ledger.Filter{Start: p.Start, End: p.End}
}

// CategoryTotal is the signed sum of one category's rows.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// Summary aggregates ledger rows. Positive amounts count as spent and
// negative amounts as income.
type Summary struct {
	Period           Period          `json:"period"`
	TotalSpent       decimal.Decimal `json:"total_spent"`
	TotalIncome      decimal.Decimal `json:"total_income"`
	Net              decimal.Decimal `json:"net"`
	ByCategory       []CategoryTotal `json:"by_category"`
	TransactionCount int             `json:"transaction_count"`
}

// CategoryTotal returns the total for category, matched case-insensitively.
func (s *Summary) CategoryTotal(category string) (CategoryTotal, bool) {
	for _, c := range s.ByCategory {
		if strings.EqualFold(c.Category, strings.TrimSpace(category)) {
			return c, true
		}
	}
	return CategoryTotal{}, false
}

// Summarize reduces rows inside p. Rows without a category are reported
// under Uncategorized. Categories are ordered by total, largest first.
func Summarize(rows []ledger.Row, p Period) *Summary {
	s := &Summary{
		Period:      p,
		TotalSpent:  decimal.Zero,
		TotalIncome: decimal.Zero,
	}
	byCategory := map[string]*CategoryTotal{}
	filter := p.Filter()

	for _, r := range rows {
		if !filter.Match(r) {
			continue
		}
		s.TransactionCount++

		if r.Amount.IsPositive() {
			s.TotalSpent = s.TotalSpent.Add(r.Amount)
		} else {
			s.TotalIncome = s.TotalIncome.Add(r.Amount.Abs())
		}

		name := strings.TrimSpace(r.Category)
		if name == "" {
			name = domain.CategoryUncategorized
		}
		ct, ok := byCategory[name]
		if !ok {
			ct = &CategoryTotal{Category: name, Total: decimal.Zero}
			byCategory[name] = ct
		}
		ct.Total = ct.Total.Add(r.Amount)
		ct.Count++
	}

	s.Net = s.TotalIncome.Sub(s.TotalSpent)
	s.ByCategory = make([]CategoryTotal, 0, len(byCategory))
	for _, ct := range byCategory {
		s.ByCategory = append(s.ByCategory, *ct)
	}
	sort.Slice(s.ByCategory, func(i, j int) bool {
		if c := s.ByCategory[i].Total.Cmp(s.ByCategory[j].Total); c != 0 {
			return c > 0
		}
		return s.ByCategory[i].Category < s.ByCategory[j].Category
	})
	return s
}
