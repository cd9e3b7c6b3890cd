package advisor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BudgetLine compares one category's target with what was spent.
type BudgetLine struct {
	Category   string          `json:"category"`
	Target     decimal.Decimal `json:"target"`
	Actual     decimal.Decimal `json:"actual"`
	Difference decimal.Decimal `json:"difference"`
	Percentage decimal.Decimal `json:"percentage"`
	OverBudget bool            `json:"over_budget"`
}

// BudgetComparison is the result of CompareToBudget.
type BudgetComparison struct {
	Period      Period          `json:"period"`
	Lines       []BudgetLine    `json:"lines"`
	TotalTarget decimal.Decimal `json:"total_target"`
	TotalActual decimal.Decimal `json:"total_actual"`
	Report      string          `json:"report"`
}

// compareBudget matches targets against summary totals. Percentage is
// actual over target, zero when the target is not positive.
func compareBudget(summary *Summary, targets map[string]decimal.Decimal) *BudgetComparison {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)

	bc := &BudgetComparison{
		Period:      summary.Period,
		Lines:       make([]BudgetLine, 0, len(names)),
		TotalTarget: decimal.Zero,
		TotalActual: decimal.Zero,
	}
	for _, name := range names {
		target := targets[name]
		actual := decimal.Zero
		if ct, ok := summary.CategoryTotal(name); ok {
			actual = ct.Total
		}
		line := BudgetLine{
			Category:   name,
			Target:     target,
			Actual:     actual,
			Difference: actual.Sub(target),
			Percentage: decimal.Zero,
		}
		if target.IsPositive() {
			line.Percentage = actual.Div(target).Mul(hundred).Round(1)
		}
		line.OverBudget = line.Difference.IsPositive()

		bc.Lines = append(bc.Lines, line)
		bc.TotalTarget = bc.TotalTarget.Add(target)
		bc.TotalActual = bc.TotalActual.Add(actual)
	}
	bc.Report = formatBudgetReport(bc)
	return bc
}

func formatBudgetReport(bc *BudgetComparison) string {
	var b strings.Builder
	b.WriteString("## Budget vs Actual Spending\n\n")
	for _, l := range bc.Lines {
		status := "under budget"
		if l.OverBudget {
			status = "OVER budget"
		}
		sign := "+"
		if l.Difference.IsNegative() {
			sign = "-"
		}
		fmt.Fprintf(&b, "**%s** (%s)\n", l.Category, status)
		fmt.Fprintf(&b, "  - Target: $%s\n", l.Target.StringFixed(2))
		fmt.Fprintf(&b, "  - Actual: $%s\n", l.Actual.StringFixed(2))
		fmt.Fprintf(&b, "  - Difference: %s$%s (%s%%)\n\n", sign, l.Difference.Abs().StringFixed(2), l.Percentage.StringFixed(1))
	}
	return b.String()
}
