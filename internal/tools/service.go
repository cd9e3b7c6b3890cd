package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dvloznov/budgetrak/internal/advisor"
	"github.com/dvloznov/budgetrak/internal/ai"
	"github.com/dvloznov/budgetrak/internal/apperr"
	"github.com/dvloznov/budgetrak/internal/domain"
	"github.com/dvloznov/budgetrak/internal/ledger"
	"github.com/dvloznov/budgetrak/internal/logger"
	"github.com/dvloznov/budgetrak/internal/pipeline"
	"github.com/dvloznov/budgetrak/internal/storage"
	"github.com/shopspring/decimal"
)

// DefaultRecentLimit is how many rows get_recent_transactions returns.
const DefaultRecentLimit = 50

// StatementParser extracts statements and categorises single transactions.
type StatementParser interface {
	Parse(ctx context.Context, document []byte, sourceID string) (*pipeline.ParseResult, error)
	Categorize(ctx context.Context, description string, amount decimal.Decimal) (string, error)
}

// StatementImporter runs the whole fetch, parse, save and archive chain.
type StatementImporter interface {
	Import(ctx context.Context, sourceID string) (*pipeline.ImportResult, error)
}

// Deps are the components the tools call into.
type Deps struct {
	Files    storage.Backend
	Parser   StatementParser
	Ledger   ledger.Store
	Model    ai.Generator
	Importer StatementImporter

	// SheetLedger opens another spreadsheet for calls carrying sheet_id.
	// Nil when the ledger is not a spreadsheet.
	SheetLedger func(sheetID string) ledger.Store
}

// Service implements every tool over Deps.
type Service struct {
	deps Deps
}

func NewService(deps Deps) *Service {
	return &Service{deps: deps}
}

// NewDispatcher returns a dispatcher with every tool registered.
func (s *Service) NewDispatcher() *Dispatcher {
	d := NewDispatcher()
	s.Register(d)
	return d
}

// ledgerFor honours a sheet_id override when the ledger is a spreadsheet.
func (s *Service) ledgerFor(ctx context.Context, args map[string]interface{}) ledger.Store {
	sheetID := getString(args, "sheet_id")
	if sheetID == "" {
		return s.deps.Ledger
	}
	if s.deps.SheetLedger == nil {
		log := logger.FromContext(ctx)
		log.Debug().Str("sheet_id", sheetID).Msg("sheet_id ignored by non-spreadsheet ledger")
		return s.deps.Ledger
	}
	return s.deps.SheetLedger(sheetID)
}

func (s *Service) advisorFor(ctx context.Context, args map[string]interface{}) *advisor.Advisor {
	return advisor.New(s.ledgerFor(ctx, args), s.deps.Model)
}

// --- Storage tools ---

func (s *Service) searchFiles(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	maxResults, err := getInt(args, "max_results", storage.DefaultMaxResults)
	if err != nil {
		return nil, err
	}
	if maxResults < 1 {
		return nil, apperr.Invalidf("tools.search_drive_files", "max_results must be positive, got %d", maxResults)
	}

	files, err := s.deps.Files.List(ctx, storage.Query{
		Name:       getString(args, "query"),
		FolderID:   getString(args, "folder_id"),
		MaxResults: maxResults,
	})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"files": files, "count": len(files)}, nil
}

func (s *Service) moveFile(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	fileID, err := getStringRequired(args, "file_id")
	if err != nil {
		return nil, err
	}
	folderID, err := getStringRequired(args, "folder_id")
	if err != nil {
		return nil, err
	}
	return s.deps.Files.Move(ctx, fileID, folderID)
}

func (s *Service) createFolder(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	name, err := getStringRequired(args, "name")
	if err != nil {
		return nil, err
	}
	return s.deps.Files.CreateFolder(ctx, name, getString(args, "parent_folder_id"))
}

// --- Parser tools ---

func (s *Service) parseStatement(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	fileID, err := getStringRequired(args, "file_id")
	if err != nil {
		return nil, err
	}
	doc, err := s.deps.Files.Download(ctx, fileID)
	if err != nil {
		return nil, err
	}
	res, err := s.deps.Parser.Parse(ctx, doc, fileID)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"source_id":         fileID,
		"account_info":      res.Statement.Account,
		"transactions":      res.Statement.Transactions,
		"transaction_count": len(res.Statement.Transactions),
		"model":             res.Model,
	}, nil
}

func (s *Service) recategorize(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	description, err := getStringRequired(args, "description")
	if err != nil {
		return nil, err
	}
	amount, err := getDecimalRequired(args, "amount")
	if err != nil {
		return nil, err
	}
	category, err := s.deps.Parser.Categorize(ctx, description, amount)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"description": description,
		"amount":      amount,
		"category":    category,
	}, nil
}

func (s *Service) importStatement(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	fileID, err := getStringRequired(args, "file_id")
	if err != nil {
		return nil, err
	}
	if s.deps.Importer == nil {
		return nil, apperr.Config("tools.import_statement", errors.New("statement import is not configured"))
	}
	return s.deps.Importer.Import(ctx, fileID)
}

// --- Ledger tools ---

func (s *Service) setupLedger(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return s.ledgerFor(ctx, args).Initialize(ctx)
}

func (s *Service) saveTransactions(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	txs, err := getArrayRequired(args, "transactions")
	if err != nil {
		return nil, err
	}
	account, err := getObject(args, "account_info")
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(map[string]interface{}{"account_info": account, "transactions": txs})
	if err != nil {
		return nil, apperr.Invalid("tools.save_transactions", fmt.Errorf("encode transactions: %w", err))
	}
	stmt, err := pipeline.DecodeStatement(raw)
	if err != nil {
		return nil, err
	}

	rows := ledger.RowsFromStatement(stmt.Account, stmt.Transactions)
	res, err := s.ledgerFor(ctx, args).Append(ctx, rows)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Service) recentTransactions(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	limit, err := getInt(args, "limit", DefaultRecentLimit)
	if err != nil {
		return nil, err
	}
	if limit < 1 {
		return nil, apperr.Invalidf("tools.get_recent_transactions", "limit must be positive, got %d", limit)
	}
	rows, err := s.ledgerFor(ctx, args).Query(ctx, ledger.Filter{Limit: limit})
	if err != nil {
		return nil, err
	}
	return rowsResult(rows), nil
}

func (s *Service) searchTransactions(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	period, err := getPeriod(args)
	if err != nil {
		return nil, err
	}
	limit, err := getInt(args, "limit", 0)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, apperr.Invalidf("tools.search_transactions", "limit cannot be negative, got %d", limit)
	}

	f := period.Filter()
	f.Category = getString(args, "category")
	f.Merchant = getString(args, "merchant")
	f.Limit = limit

	rows, err := s.ledgerFor(ctx, args).Query(ctx, f)
	if err != nil {
		return nil, err
	}
	return rowsResult(rows), nil
}

func rowsResult(rows []ledger.Row) map[string]interface{} {
	if rows == nil {
		rows = []ledger.Row{}
	}
	return map[string]interface{}{"transactions": rows, "count": len(rows)}
}

// --- Advisor tools ---

func (s *Service) spendingSummary(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	period, err := getPeriod(args)
	if err != nil {
		return nil, err
	}
	return s.advisorFor(ctx, args).Summarize(ctx, period)
}

func (s *Service) budgetAdvice(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	period, err := getPeriod(args)
	if err != nil {
		return nil, err
	}
	return s.advisorFor(ctx, args).Advice(ctx, period)
}

func (s *Service) savings(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return s.advisorFor(ctx, args).SavingsOpportunities(ctx)
}

func (s *Service) trends(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return s.advisorFor(ctx, args).Trends(ctx, getString(args, "category"))
}

func (s *Service) compareToBudget(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	targets, err := getTargets(args, "budgets")
	if err != nil {
		return nil, err
	}
	period, err := getPeriod(args)
	if err != nil {
		return nil, err
	}
	return s.advisorFor(ctx, args).CompareToBudget(ctx, targets, period)
}

var categoryList = fmt.Sprintf("%q", domain.Categories)
