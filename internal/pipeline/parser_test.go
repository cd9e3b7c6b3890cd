package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dvloznov/budgetrak/internal/ai"
	"github.com/dvloznov/budgetrak/internal/apperr"
	"github.com/dvloznov/budgetrak/internal/domain"
	"github.com/shopspring/decimal"
)

// MockGenerator is a mock implementation of ai.Generator for testing.
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, req ai.Request) (*ai.Response, error)
	Requests     []ai.Request
}

func (m *MockGenerator) Generate(ctx context.Context, req ai.Request) (*ai.Response, error) {
	m.Requests = append(m.Requests, req)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return &ai.Response{Text: "[]", Model: "mock-model"}, nil
}

func respondWith(text string) func(context.Context, ai.Request) (*ai.Response, error) {
	return func(context.Context, ai.Request) (*ai.Response, error) {
		return &ai.Response{Text: text, Model: "mock-model", InputTokens: 100, OutputTokens: 20}, nil
	}
}

const threeTransactions = `{
	"account_info": {"bank": "Chase", "account_number": "1234"},
	"transactions": [
		{"date": "2024-03-01", "description": "STARBUCKS", "amount": 5.75, "type": "debit", "category": "Food/Dining"},
		{"date": "2024-03-02", "description": "SHELL OIL", "amount": 40.00, "type": "debit", "category": "Transportation"},
		{"date": "2024-03-03", "description": "DIRECT DEP", "amount": 1500.00, "type": "credit", "category": "Income"}
	]
}`

func TestParser_Parse_PDF(t *testing.T) {
	gen := &MockGenerator{GenerateFunc: respondWith(threeTransactions)}
	p := NewParser(gen)

	doc := []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj")
	res, err := p.Parse(context.Background(), doc, "drive-file-1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(res.Statement.Transactions) != 3 {
		t.Fatalf("got %d transactions, want 3", len(res.Statement.Transactions))
	}
	for i, tx := range res.Statement.Transactions {
		if tx.Date.IsZero() || tx.Description == "" {
			t.Errorf("transaction %d incomplete: %+v", i, tx)
		}
		if tx.SourceID != "drive-file-1" {
			t.Errorf("transaction %d SourceID = %q", i, tx.SourceID)
		}
	}
	if res.Statement.SourceID != "drive-file-1" || res.Statement.Account.Bank != "Chase" {
		t.Errorf("unexpected statement header: %+v", res.Statement)
	}
	if res.Model != "mock-model" || res.InputTokens != 100 || res.RawOutput != threeTransactions {
		t.Errorf("unexpected result metadata: %+v", res)
	}

	req := gen.Requests[0]
	if !req.JSON {
		t.Error("extraction should request JSON output")
	}
	if len(req.Attachments) != 1 || req.Attachments[0].MIMEType != "application/pdf" {
		t.Errorf("expected one PDF attachment, got %+v", req.Attachments)
	}
	if !strings.Contains(req.Prompt, domain.CategoryBills) {
		t.Error("prompt should list the categories")
	}
}

func TestParser_Parse_TextInlined(t *testing.T) {
	gen := &MockGenerator{GenerateFunc: respondWith(`[{"date":"2024-01-02","description":"RENT","amount":1200}]`)}
	p := NewParser(gen)

	res, err := p.Parse(context.Background(), []byte("01/02 RENT 1,200.00\n"), "statement.txt")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.Statement.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(res.Statement.Transactions))
	}

	req := gen.Requests[0]
	if len(req.Attachments) != 0 {
		t.Errorf("text documents should not be attached, got %d attachments", len(req.Attachments))
	}
	if !strings.Contains(req.Prompt, "01/02 RENT 1,200.00") {
		t.Error("prompt should contain the statement text")
	}
}

func TestParser_Parse_Errors(t *testing.T) {
	pdf := []byte("%PDF-1.4 test")

	tests := []struct {
		name     string
		doc      []byte
		generate func(context.Context, ai.Request) (*ai.Response, error)
		want     error
		wantRaw  bool
	}{
		{
			name: "empty document",
			doc:  nil,
			want: apperr.ErrInvalidInput,
		},
		{
			name:     "non json output",
			doc:      pdf,
			generate: respondWith("Sorry, I can't help with that."),
			want:     apperr.ErrParse,
			wantRaw:  true,
		},
		{
			name:     "missing amount",
			doc:      pdf,
			generate: respondWith(`[{"date":"2024-01-01","description":"X"}]`),
			want:     apperr.ErrParse,
			wantRaw:  true,
		},
		{
			name: "model failure",
			doc:  pdf,
			generate: func(context.Context, ai.Request) (*ai.Response, error) {
				return nil, apperr.Upstream("ai.Generate", errors.New("503"))
			},
			want: apperr.ErrUpstream,
		},
		{
			name: "unsupported binary",
			doc:  []byte{0x50, 0x4b, 0x03, 0x04, 0x00, 0x00},
			want: apperr.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser(&MockGenerator{GenerateFunc: tt.generate})
			res, err := p.Parse(context.Background(), tt.doc, "src")
			if !errors.Is(err, tt.want) {
				t.Fatalf("Parse() error = %v, want %v", err, tt.want)
			}
			if tt.wantRaw && (res == nil || res.RawOutput == "") {
				t.Error("raw output should be returned with parse errors")
			}
		})
	}
}

func TestParser_Categorize(t *testing.T) {
	tests := []struct {
		answer string
		want   string
	}{
		{"Food/Dining", domain.CategoryFood},
		{"  \"transportation\"\n", domain.CategoryTransport},
		{"Groceries", domain.CategoryOther},
		{"", domain.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			p := NewParser(&MockGenerator{GenerateFunc: respondWith(tt.answer)})
			got, err := p.Categorize(context.Background(), "UBER TRIP", decimal.RequireFromString("23.40"))
			if err != nil {
				t.Fatalf("Categorize: %v", err)
			}
			if got != tt.want {
				t.Errorf("Categorize() = %q, want %q", got, tt.want)
			}
		})
	}

	p := NewParser(&MockGenerator{})
	if _, err := p.Categorize(context.Background(), "  ", decimal.Zero); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("empty description: got %v, want invalid input", err)
	}
}
