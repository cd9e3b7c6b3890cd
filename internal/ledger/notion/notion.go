// Package notion stores the ledger as pages of a Notion database.
package notion

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dvloznov/budgetrak/internal/apperr"
	"github.com/dvloznov/budgetrak/internal/ledger"
	"github.com/dvloznov/budgetrak/internal/logger"
	"github.com/jomei/notionapi"
)

const (
	backendName = "notion"

	// pageSize is the largest page the query endpoint returns.
	pageSize = 100
)

type Store struct {
	svc        Service
	databaseID string
	now        func() time.Time
}

var _ ledger.Store = (*Store)(nil)

func New(svc Service, databaseID string) *Store {
	return &Store{svc: svc, databaseID: databaseID, now: time.Now}
}

// Initialize checks that the database has every ledger property.
// Notion databases are created by the user, so Created is always false.
func (s *Store) Initialize(ctx context.Context) (*ledger.Info, error) {
	db, err := s.svc.GetDatabase(ctx, s.databaseID)
	if err != nil {
		return nil, apperr.Storage("notion.Initialize", err)
	}

	var missing []string
	for _, name := range requiredProperties {
		if _, ok := db.Properties[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, apperr.Storage("notion.Initialize",
			fmt.Errorf("database %s is missing properties: %s", s.databaseID, strings.Join(missing, ", ")))
	}

	var title string
	for _, rt := range db.Title {
		title += rt.PlainText
	}
	return &ledger.Info{
		Backend:  backendName,
		Title:    title,
		Location: "https://www.notion.so/" + strings.ReplaceAll(s.databaseID, "-", ""),
	}, nil
}

// Append creates one page per row. Pages already created stay when a later
// one fails.
func (s *Store) Append(ctx context.Context, rows []ledger.Row) (*ledger.AppendResult, error) {
	log := logger.FromContext(ctx)
	base := s.now().UnixMilli() * 1000

	for i, r := range rows {
		page, err := s.svc.CreatePage(ctx, s.databaseID, RowToProperties(r, base+int64(i)))
		if err != nil {
			return nil, apperr.Storage("notion.Append",
				fmt.Errorf("row %d of %d (%d written): %w", i+1, len(rows), i, err))
		}
		log.Debug().
			Str("row_id", r.ID).
			Str("page_id", string(page.ID)).
			Msg("Created Notion page")
	}

	log.Info().Int("rows", len(rows)).Msg("Appended ledger rows")
	return &ledger.AppendResult{Appended: len(rows)}, nil
}

// Query pages through the whole database ordered by Seq.
func (s *Store) Query(ctx context.Context, f ledger.Filter) ([]ledger.Row, error) {
	pages, err := s.queryAllPages(ctx, dateFilter(f))
	if err != nil {
		return nil, apperr.Storage("notion.Query", err)
	}

	log := logger.FromContext(ctx)
	type seqRow struct {
		seq float64
		row ledger.Row
	}
	collected := make([]seqRow, 0, len(pages))
	for _, page := range pages {
		r, err := RowFromPage(page)
		if err != nil {
			log.Debug().Err(err).Msg("Skipping unreadable Notion page")
			continue
		}
		var seq float64
		if p, ok := page.Properties[propSeq].(*notionapi.NumberProperty); ok {
			seq = p.Number
		}
		collected = append(collected, seqRow{seq: seq, row: r})
	}

	// The API already sorts by Seq; keep it stable for pages without one.
	sort.SliceStable(collected, func(i, j int) bool { return collected[i].seq < collected[j].seq })

	rows := make([]ledger.Row, 0, len(collected))
	for _, c := range collected {
		rows = append(rows, c.row)
	}
	return f.Apply(rows), nil
}

func (s *Store) queryAllPages(ctx context.Context, filter notionapi.Filter) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: pageSize,
			Sorts: []notionapi.SortObject{
				{Property: propSeq, Direction: notionapi.SortOrderASC},
			},
		}
		if filter != nil {
			req.Filter = filter
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := s.svc.QueryDatabase(ctx, s.databaseID, req)
		if err != nil {
			return nil, err
		}
		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}

// dateFilter pushes the date bounds of f down to the query.
func dateFilter(f ledger.Filter) notionapi.Filter {
	var conds notionapi.AndCompoundFilter
	if !f.Start.IsZero() {
		d := notionapi.Date(f.Start.In(time.UTC))
		conds = append(conds, notionapi.PropertyFilter{
			Property: propDate,
			Date:     &notionapi.DateFilterCondition{OnOrAfter: &d},
		})
	}
	if !f.End.IsZero() {
		d := notionapi.Date(f.End.In(time.UTC))
		conds = append(conds, notionapi.PropertyFilter{
			Property: propDate,
			Date:     &notionapi.DateFilterCondition{OnOrBefore: &d},
		})
	}
	switch len(conds) {
	case 0:
		return nil
	case 1:
		return conds[0]
	}
	return conds
}
