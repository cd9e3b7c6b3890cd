package ledger

import (
	"context"
	"fmt"

	"github.com/dvloznov/budgetrak/internal/logger"
)

// SyncResult counts what Sync did.
type SyncResult struct {
	Source   int    `json:"source"`
	Existing int    `json:"existing"`
	Appended int    `json:"appended"`
	Range    string `json:"range,omitempty"`
}

// Sync copies rows matching f from one ledger to another, skipping rows
// whose ID the target already holds. With dryRun nothing is written.
func Sync(ctx context.Context, from, to Store, f Filter, dryRun bool) (*SyncResult, error) {
	log := logger.FromContext(ctx)

	log.Info().
		Str("start", f.Start.String()).
		Str("end", f.End.String()).
		Bool("dry_run", dryRun).
		Msg("Starting ledger sync")

	rows, err := from.Query(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to query source ledger: %w", err)
	}
	existing, err := to.Query(ctx, Filter{Start: f.Start, End: f.End})
	if err != nil {
		return nil, fmt.Errorf("failed to query target ledger: %w", err)
	}

	seen := make(map[string]bool, len(existing))
	for _, r := range existing {
		if r.ID != "" {
			seen[r.ID] = true
		}
	}

	res := &SyncResult{Source: len(rows)}
	var missing []Row
	for _, r := range rows {
		if r.ID != "" && seen[r.ID] {
			res.Existing++
			continue
		}
		missing = append(missing, r)
	}

	log.Info().
		Int("source", res.Source).
		Int("existing", res.Existing).
		Int("missing", len(missing)).
		Msg("Compared ledgers")

	if dryRun || len(missing) == 0 {
		return res, nil
	}

	appended, err := to.Append(ctx, missing)
	if err != nil {
		return res, fmt.Errorf("failed to append to target ledger: %w", err)
	}
	res.Appended = appended.Appended
	res.Range = appended.Range
	return res, nil
}
