package advisor

import (
	"fmt"
	"strings"

	"github.com/dvloznov/budgetrak/internal/ledger"
	"github.com/shopspring/decimal"
)

// promptRecentRows caps how many transactions are pasted into a prompt.
const promptRecentRows = 20

func money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

func writeSummary(b *strings.Builder, s *Summary) {
	fmt.Fprintf(b, "- Total spent: %s\n", money(s.TotalSpent))
	fmt.Fprintf(b, "- Total income: %s\n", money(s.TotalIncome))
	fmt.Fprintf(b, "- Net: %s\n", money(s.Net))
	fmt.Fprintf(b, "- Transactions: %d\n", s.TransactionCount)
	b.WriteString("\nBy category:\n")
	for _, c := range s.ByCategory {
		fmt.Fprintf(b, "- %s: %s (%d transactions)\n", c.Category, money(c.Total), c.Count)
	}
}

func writeRows(b *strings.Builder, rows []ledger.Row) {
	if len(rows) > promptRecentRows {
		rows = rows[len(rows)-promptRecentRows:]
	}
	for _, r := range rows {
		fmt.Fprintf(b, "- %s | %s | %s | %s\n", r.Date, r.Merchant, money(r.Amount), r.Category)
	}
}

func buildAdvicePrompt(s *Summary, balance decimal.Decimal, recent []ledger.Row) string {
	var b strings.Builder
	b.WriteString("You are a personal finance advisor. Review this person's finances and give practical budgeting advice.\n\n")
	b.WriteString("Financial summary:\n")
	writeSummary(&b, s)
	fmt.Fprintf(&b, "\nCurrent balance (income minus spending): %s\n", money(balance))
	b.WriteString("\nRecent transactions:\n")
	writeRows(&b, recent)
	b.WriteString("\nProvide:\n")
	b.WriteString("1. An overall assessment of their financial health\n")
	b.WriteString("2. The top 3 areas where spending could be reduced\n")
	b.WriteString("3. A suggested monthly budget per category\n")
	b.WriteString("4. Concrete next steps\n\n")
	b.WriteString("Be specific and refer to the actual numbers. Positive amounts are money spent, negative amounts are money received.\n")
	return b.String()
}

func buildSavingsPrompt(r *SavingsReport, recent []ledger.Row) string {
	var b strings.Builder
	b.WriteString("You are a personal finance advisor looking for ways to save money.\n\n")
	b.WriteString("Financial summary:\n")
	writeSummary(&b, r.Summary)

	if len(r.Recurring) > 0 {
		b.WriteString("\nRecurring charges already detected:\n")
		for _, c := range r.Recurring {
			fmt.Fprintf(&b, "- %s: %s in %s (about %s per year)\n", c.Merchant, money(c.Amount), strings.Join(c.Months, ", "), money(c.AnnualCost))
		}
	}
	if len(r.Duplicates) > 0 {
		b.WriteString("\nPossible duplicate charges:\n")
		for _, d := range r.Duplicates {
			fmt.Fprintf(&b, "- %s %s %s charged %d times\n", d.Date, d.Merchant, money(d.Amount), d.Count)
		}
	}

	b.WriteString("\nRecent transactions:\n")
	writeRows(&b, recent)
	b.WriteString("\nIdentify:\n")
	b.WriteString("1. Subscriptions that may be unused or could be cancelled\n")
	b.WriteString("2. Categories with excessive spending\n")
	b.WriteString("3. Recurring charges worth renegotiating\n")
	b.WriteString("4. Charges that look like duplicates or errors\n")
	b.WriteString("5. Cheaper alternatives for frequent purchases\n\n")
	b.WriteString("Estimate the monthly saving for each suggestion.\n")
	return b.String()
}

func buildTrendsPrompt(t *TrendReport) string {
	var b strings.Builder
	subject := "overall spending"
	if t.Category != "" {
		subject = "spending in the " + t.Category + " category"
	}
	fmt.Fprintf(&b, "You are a personal finance analyst. Analyse the monthly trend of %s.\n\n", subject)
	b.WriteString("Monthly totals:\n")
	for _, m := range t.Months {
		line := fmt.Sprintf("- %s: %s (%d transactions)", m.Month, money(m.Total), m.Count)
		if m.Change != nil {
			line += fmt.Sprintf(", change %s", money(*m.Change))
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\nDescribe:\n")
	b.WriteString("1. The overall trend (increasing, decreasing or stable)\n")
	b.WriteString("2. Seasonal patterns\n")
	b.WriteString("3. Unusual months and likely reasons\n")
	b.WriteString("4. A prediction for next month\n")
	b.WriteString("5. Recommendations\n")
	return b.String()
}
