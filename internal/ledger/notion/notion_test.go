package notion

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/budgetrak/internal/apperr"
	"github.com/dvloznov/budgetrak/internal/domain"
	"github.com/dvloznov/budgetrak/internal/ledger"
	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"
)

// MockService is an in-memory Notion database. Query results come back in
// pages of pageLimit to exercise pagination.
type MockService struct {
	pages     []notionapi.Page
	pageLimit int
	failAfter int
	queries   []*notionapi.DatabaseQueryRequest
	schema    notionapi.PropertyConfigs
}

func (m *MockService) CreatePage(ctx context.Context, databaseID string, props notionapi.Properties) (*notionapi.Page, error) {
	if m.failAfter > 0 && len(m.pages) >= m.failAfter {
		return nil, errors.New("rate limited")
	}
	page := notionapi.Page{
		ID:         notionapi.ObjectID(fmt.Sprintf("page-%d", len(m.pages)+1)),
		Properties: asResponse(props),
	}
	m.pages = append(m.pages, page)
	return &page, nil
}

func (m *MockService) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	m.queries = append(m.queries, req)
	start := 0
	if req.StartCursor != "" {
		fmt.Sscanf(string(req.StartCursor), "%d", &start)
	}
	end := start + m.pageLimit
	if m.pageLimit == 0 || end > len(m.pages) {
		end = len(m.pages)
	}
	resp := &notionapi.DatabaseQueryResponse{Results: m.pages[start:end]}
	if end < len(m.pages) {
		resp.HasMore = true
		resp.NextCursor = notionapi.Cursor(fmt.Sprint(end))
	}
	return resp, nil
}

func (m *MockService) GetDatabase(ctx context.Context, databaseID string) (*notionapi.Database, error) {
	return &notionapi.Database{
		Title:      []notionapi.RichText{{PlainText: "Budget Ledger"}},
		Properties: m.schema,
	}, nil
}

// asResponse turns request properties into the pointer types the API
// returns when decoding pages.
func asResponse(props notionapi.Properties) notionapi.Properties {
	out := notionapi.Properties{}
	for k, p := range props {
		switch v := p.(type) {
		case notionapi.TitleProperty:
			out[k] = &v
		case notionapi.RichTextProperty:
			out[k] = &v
		case notionapi.NumberProperty:
			out[k] = &v
		case notionapi.SelectProperty:
			out[k] = &v
		case notionapi.DateProperty:
			out[k] = &v
		}
	}
	return out
}

func sampleRow(id string, day int, amount, category string) ledger.Row {
	tx := domain.Transaction{
		Date:        civil.Date{Year: 2024, Month: 3, Day: day},
		Merchant:    "Merchant " + id,
		Description: "RAW " + id,
		Amount:      decimal.RequireFromString(amount),
		Category:    category,
		SourceID:    "file-1",
	}
	tx.NormalizeSign()
	return ledger.Row{ID: id, Transaction: tx, Bank: "Chase", Account: "1234", Notes: tx.Description}
}

func TestStore_AppendThenQuery(t *testing.T) {
	svc := &MockService{pageLimit: 2}
	s := New(svc, "db-1")
	s.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	ctx := context.Background()

	rows := []ledger.Row{
		sampleRow("a", 20, "12.30", domain.CategoryFood),
		sampleRow("b", 1, "-500", domain.CategoryIncome),
		sampleRow("c", 10, "60", ""),
	}
	res, err := s.Append(ctx, rows)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if res.Appended != 3 {
		t.Errorf("Appended = %d, want 3", res.Appended)
	}

	got, err := s.Query(ctx, ledger.Filter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(svc.queries) != 2 {
		t.Errorf("expected 2 paginated queries, got %d", len(svc.queries))
	}
	if len(got) != 3 {
		t.Fatalf("got %d rows, want 3", len(got))
	}
	for i, want := range rows {
		g := got[i]
		if g.ID != want.ID || g.Date != want.Date || !g.Amount.Equal(want.Amount) ||
			g.Category != want.Category || g.Type != want.Type || g.Notes != want.Notes {
			t.Errorf("row %d = %+v, want %+v", i, g, want)
		}
	}

	sorts := svc.queries[0].Sorts
	if len(sorts) != 1 || sorts[0].Property != propSeq || sorts[0].Direction != notionapi.SortOrderASC {
		t.Errorf("unexpected sorts: %+v", sorts)
	}
}

func TestStore_QueryDateFilter(t *testing.T) {
	svc := &MockService{}
	s := New(svc, "db-1")
	ctx := context.Background()

	if _, err := s.Append(ctx, []ledger.Row{sampleRow("a", 1, "1", ""), sampleRow("b", 15, "2", "")}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := s.Query(ctx, ledger.Filter{Start: civil.Date{Year: 2024, Month: 3, Day: 10}})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("got %+v, want only row b", got)
	}
	if _, ok := svc.queries[0].Filter.(notionapi.PropertyFilter); !ok {
		t.Errorf("expected a single property filter, got %T", svc.queries[0].Filter)
	}
}

func TestStore_AppendPartialFailure(t *testing.T) {
	svc := &MockService{failAfter: 1}
	s := New(svc, "db-1")

	_, err := s.Append(context.Background(), []ledger.Row{sampleRow("a", 1, "1", ""), sampleRow("b", 2, "2", "")})
	if !errors.Is(err, apperr.ErrStorage) {
		t.Fatalf("Append() error = %v, want storage error", err)
	}
	if len(svc.pages) != 1 {
		t.Errorf("pages = %d, want 1 written before the failure", len(svc.pages))
	}
}

func TestStore_Initialize(t *testing.T) {
	full := notionapi.PropertyConfigs{}
	for _, name := range requiredProperties {
		full[name] = &notionapi.RichTextPropertyConfig{}
	}

	info, err := New(&MockService{schema: full}, "abc-def").Initialize(context.Background())
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if info.Title != "Budget Ledger" || info.Location != "https://www.notion.so/abcdef" || info.Created {
		t.Errorf("unexpected info: %+v", info)
	}

	partial := notionapi.PropertyConfigs{propMerchant: &notionapi.TitlePropertyConfig{}}
	_, err = New(&MockService{schema: partial}, "db").Initialize(context.Background())
	if !errors.Is(err, apperr.ErrStorage) {
		t.Errorf("missing properties: got %v, want storage error", err)
	}
}
