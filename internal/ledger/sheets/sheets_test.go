package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/budgetrak/internal/apperr"
	"github.com/dvloznov/budgetrak/internal/domain"
	"github.com/dvloznov/budgetrak/internal/ledger"
	"github.com/dvloznov/budgetrak/internal/logger"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSpreadsheet serves the subset of the Sheets v4 API the client uses.
type fakeSpreadsheet struct {
	mu           sync.Mutex
	id           string
	title        string
	tabs         []string
	header       []interface{}
	rows         [][]interface{}
	batchUpdates int
	headerWrites int
	status       int
}

func (f *fakeSpreadsheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
		fmt.Fprintf(w, `{"error":{"code":%d,"message":"rejected"}}`, f.status)
		return
	}
	if !strings.Contains(r.URL.Path, "/spreadsheets/"+f.id) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"code":404,"message":"Requested entity was not found."}}`)
		return
	}

	p := r.URL.Path
	switch {
	case strings.HasSuffix(p, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			if rq.AddSheet != nil {
				f.tabs = append(f.tabs, rq.AddSheet.Properties.Title)
			}
		}
		f.batchUpdates++
		fmt.Fprintf(w, `{"spreadsheetId":%q}`, f.id)

	case strings.HasSuffix(p, ":append"):
		var vr gsheet.ValueRange
		json.NewDecoder(r.Body).Decode(&vr)
		first := len(f.rows) + 2
		f.rows = append(f.rows, vr.Values...)
		fmt.Fprintf(w, `{"updates":{"updatedRange":"Transactions!A%d:J%d","updatedRows":%d}}`,
			first, len(f.rows)+1, len(vr.Values))

	case strings.Contains(p, "/values/") && strings.Contains(p, "A1:J1"):
		if r.Method == http.MethodPut {
			var vr gsheet.ValueRange
			json.NewDecoder(r.Body).Decode(&vr)
			f.header = vr.Values[0]
			f.headerWrites++
			fmt.Fprint(w, `{"updatedRows":1}`)
			return
		}
		values := [][]interface{}{}
		if f.header != nil {
			values = append(values, f.header)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"values": values})

	case strings.Contains(p, "/values/"):
		json.NewEncoder(w).Encode(map[string]interface{}{"values": f.rows})

	default:
		sheets := make([]map[string]interface{}, 0, len(f.tabs))
		for _, t := range f.tabs {
			sheets = append(sheets, map[string]interface{}{"properties": map[string]interface{}{"title": t}})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"properties": map[string]interface{}{"title": f.title},
			"sheets":     sheets,
		})
	}
}

func newTestClient(t *testing.T, fake *fakeSpreadsheet) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), fake.id, "Transactions",
		option.WithHTTPClient(srv.Client()), option.WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func testRow(day int, merchant, amount, category string) ledger.Row {
	tx := domain.Transaction{
		Date:        civil.Date{Year: 2024, Month: 3, Day: day},
		Merchant:    merchant,
		Description: strings.ToUpper(merchant),
		Amount:      decimal.RequireFromString(amount),
		Category:    category,
		SourceID:    "file-1",
	}
	tx.NormalizeSign()
	return ledger.Row{ID: fmt.Sprintf("id-%d", day), Transaction: tx, Bank: "Chase", Account: "1234", Notes: tx.Description}
}

func TestClient_Initialize(t *testing.T) {
	fake := &fakeSpreadsheet{id: "sheet-1", title: "Budget", tabs: []string{"Sheet1"}}
	c := newTestClient(t, fake)
	ctx := context.Background()

	info, err := c.Initialize(ctx)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !info.Created || info.Title != "Budget" || !strings.HasSuffix(info.Location, "/sheet-1") {
		t.Errorf("unexpected info: %+v", info)
	}
	if fake.batchUpdates != 1 || fake.headerWrites != 1 {
		t.Errorf("batchUpdates = %d, headerWrites = %d", fake.batchUpdates, fake.headerWrites)
	}
	if len(fake.header) != len(ledger.Columns) || fake.header[0] != "Date" || fake.header[9] != "ID" {
		t.Errorf("header = %v", fake.header)
	}

	// A second run finds the tab and header in place.
	info, err = c.Initialize(ctx)
	if err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
	if info.Created {
		t.Error("second Initialize should not create the sheet")
	}
	if fake.batchUpdates != 1 || fake.headerWrites != 1 {
		t.Errorf("second run wrote again: batchUpdates = %d, headerWrites = %d", fake.batchUpdates, fake.headerWrites)
	}
}

func TestClient_AppendThenQuery(t *testing.T) {
	fake := &fakeSpreadsheet{id: "sheet-1", tabs: []string{"Transactions"}}
	c := newTestClient(t, fake)
	ctx := context.Background()

	rows := []ledger.Row{
		testRow(1, "Coffee Shop", "4.50", domain.CategoryFood),
		testRow(5, "Acme Payroll", "-2000", domain.CategoryIncome),
		testRow(9, "Shell", "40.25", domain.CategoryTransport),
	}
	rows[1].Type = domain.TypeCredit

	res, err := c.Append(ctx, rows)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if res.Appended != 3 || res.Range != "Transactions!A2:J4" {
		t.Errorf("unexpected append result: %+v", res)
	}

	got, err := c.Query(ctx, ledger.Filter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != len(rows) {
		t.Fatalf("got %d rows, want %d", len(got), len(rows))
	}
	for i := range rows {
		want := rows[i]
		if got[i].ID != want.ID || got[i].Date != want.Date || !got[i].Amount.Equal(want.Amount) ||
			got[i].Merchant != want.Merchant || got[i].Category != want.Category || got[i].Type != want.Type {
			t.Errorf("row %d = %+v, want %+v", i, got[i], want)
		}
	}

	filtered, err := c.Query(ctx, ledger.Filter{Category: "food/dining"})
	if err != nil {
		t.Fatalf("Query filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Merchant != "Coffee Shop" {
		t.Errorf("filtered = %+v", filtered)
	}
}

func TestClient_QuerySkipsUnreadableRows(t *testing.T) {
	fake := &fakeSpreadsheet{id: "sheet-1", rows: [][]interface{}{
		{"2024-03-01", "Coffee", 4.5, "Food/Dining", "debit"},
		{"note to self"},
		{45352.0, "Rent Co", "$1,200.00", "Rent/Housing", "debit", "Chase", "1234", "RENT MARCH"},
		{"yesterday", "Broken", 1.0, "", "debit"},
	}}
	c := newTestClient(t, fake)
	buf := &bytes.Buffer{}
	ctx := logger.WithContext(context.Background(), logger.NewWithWriter(buf))

	got, err := c.Query(ctx, ledger.Filter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2: %+v", len(got), got)
	}
	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, `"rows":[3,5]`) {
		t.Errorf("expected warning naming skipped rows 3 and 5, got %q", out)
	}
	rent := got[1]
	if rent.Date != (civil.Date{Year: 2024, Month: 3, Day: 1}) {
		t.Errorf("serial date decoded as %v", rent.Date)
	}
	if !rent.Amount.Equal(decimal.NewFromInt(1200)) || rent.Notes != "RENT MARCH" || rent.Bank != "Chase" {
		t.Errorf("unexpected rent row: %+v", rent)
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"forbidden", http.StatusForbidden, apperr.ErrAuth},
		{"server error", http.StatusInternalServerError, apperr.ErrStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, &fakeSpreadsheet{id: "sheet-1", status: tt.status})
			_, err := c.Append(context.Background(), []ledger.Row{testRow(1, "X", "1", "")})
			if !errors.Is(err, tt.want) {
				t.Errorf("Append() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClient_WithSpreadsheet(t *testing.T) {
	fake := &fakeSpreadsheet{id: "sheet-1", tabs: []string{"Transactions"}}
	c := newTestClient(t, fake)

	other := c.WithSpreadsheet("sheet-2")
	if other.SpreadsheetID() != "sheet-2" || c.SpreadsheetID() != "sheet-1" {
		t.Errorf("ids = %q, %q", other.SpreadsheetID(), c.SpreadsheetID())
	}
	if _, err := other.Query(context.Background(), ledger.Filter{}); !errors.Is(err, apperr.ErrStorage) {
		t.Errorf("unknown spreadsheet: got %v, want storage error", err)
	}
	if c.WithSpreadsheet("") != c {
		t.Error("empty id should return the same client")
	}
}
