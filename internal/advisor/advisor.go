// Package advisor reduces ledger rows into summaries and asks the model for
// budgeting advice. It keeps no state of its own.
package advisor

import (
	"context"
	"strings"

	"github.com/dvloznov/budgetrak/internal/ai"
	"github.com/dvloznov/budgetrak/internal/apperr"
	"github.com/dvloznov/budgetrak/internal/ledger"
	"github.com/dvloznov/budgetrak/internal/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Read sizes for the model-backed reports.
const (
	AdviceRecentLimit  = 200
	SavingsRecentLimit = 500
)

type Advisor struct {
	ledger ledger.Store
	model  ai.Generator
}

// New returns an Advisor. model may be nil, in which case the reports carry
// no narrative.
func New(store ledger.Store, model ai.Generator) *Advisor {
	return &Advisor{ledger: store, model: model}
}

// Summarize totals the ledger rows inside p.
func (a *Advisor) Summarize(ctx context.Context, p Period) (*Summary, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	rows, err := a.ledger.Query(ctx, p.Filter())
	if err != nil {
		return nil, err
	}
	return Summarize(rows, p), nil
}

// Trends returns monthly totals for category, or for every row when
// category is empty.
func (a *Advisor) Trends(ctx context.Context, category string) (*TrendReport, error) {
	log := logger.FromContext(ctx)
	category = strings.TrimSpace(category)

	rows, err := a.ledger.Query(ctx, ledger.Filter{Category: category})
	if err != nil {
		return nil, err
	}

	report := &TrendReport{Category: category, Months: MonthlyTotals(rows)}
	log.Info().Str("category", category).Int("rows", len(rows)).Int("months", len(report.Months)).Msg("Computed spending trend")

	if len(report.Months) == 0 {
		return report, nil
	}
	report.Analysis, err = a.narrate(ctx, buildTrendsPrompt(report))
	if err != nil {
		return nil, err
	}
	return report, nil
}

// CompareToBudget compares per-category targets with actual totals in p.
func (a *Advisor) CompareToBudget(ctx context.Context, targets map[string]decimal.Decimal, p Period) (*BudgetComparison, error) {
	if len(targets) == 0 {
		return nil, apperr.Invalidf("advisor.CompareToBudget", "at least one budget target is required")
	}
	for name, target := range targets {
		if strings.TrimSpace(name) == "" {
			return nil, apperr.Invalidf("advisor.CompareToBudget", "budget target has an empty category")
		}
		if target.IsNegative() {
			return nil, apperr.Invalidf("advisor.CompareToBudget", "budget target for %q is negative", name)
		}
	}

	summary, err := a.Summarize(ctx, p)
	if err != nil {
		return nil, err
	}
	return compareBudget(summary, targets), nil
}

// AdviceReport is the result of Advice.
type AdviceReport struct {
	Summary        *Summary        `json:"summary"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	Recent         int             `json:"recent_transactions"`
	Advice         string          `json:"advice"`
}

// Advice asks the model for budgeting recommendations over the summary of p
// and the most recent transactions.
func (a *Advisor) Advice(ctx context.Context, p Period) (*AdviceReport, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	summary, recent, err := a.load(ctx, p, AdviceRecentLimit)
	if err != nil {
		return nil, err
	}

	report := &AdviceReport{
		Summary:        summary,
		CurrentBalance: summary.TotalIncome.Sub(summary.TotalSpent),
		Recent:         len(recent),
	}
	if summary.TransactionCount == 0 && len(recent) == 0 {
		report.Advice = "No transactions found. Save some transactions to the ledger first."
		return report, nil
	}
	report.Advice, err = a.narrate(ctx, buildAdvicePrompt(summary, report.CurrentBalance, recent))
	if err != nil {
		return nil, err
	}
	return report, nil
}

// SavingsOpportunities looks for duplicate and recurring charges in recent
// transactions and asks the model where else money could be saved.
func (a *Advisor) SavingsOpportunities(ctx context.Context) (*SavingsReport, error) {
	log := logger.FromContext(ctx)

	summary, recent, err := a.load(ctx, Period{}, SavingsRecentLimit)
	if err != nil {
		return nil, err
	}

	report := &SavingsReport{
		Summary:    summary,
		Duplicates: FindDuplicates(recent),
		Recurring:  FindRecurring(recent),
	}
	log.Info().
		Int("recent", len(recent)).
		Int("duplicates", len(report.Duplicates)).
		Int("recurring", len(report.Recurring)).
		Msg("Scanned transactions for savings")

	if len(recent) == 0 {
		return report, nil
	}
	report.Analysis, err = a.narrate(ctx, buildSavingsPrompt(report, recent))
	if err != nil {
		return nil, err
	}
	return report, nil
}

// load reads the summary window and the most recent rows concurrently.
func (a *Advisor) load(ctx context.Context, p Period, recentLimit int) (*Summary, []ledger.Row, error) {
	var (
		summary *Summary
		recent  []ledger.Row
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = a.Summarize(gctx, p)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = a.ledger.Query(gctx, ledger.Filter{Limit: recentLimit})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return summary, recent, nil
}

func (a *Advisor) narrate(ctx context.Context, prompt string) (string, error) {
	if a.model == nil {
		return "", nil
	}
	resp, err := a.model.Generate(ctx, ai.Request{Prompt: prompt})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}
