// Package sqlite keeps the ledger in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/budgetrak/internal/apperr"
	"github.com/dvloznov/budgetrak/internal/domain"
	"github.com/dvloznov/budgetrak/internal/ledger"
	"github.com/dvloznov/budgetrak/internal/logger"
	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite"
)

const backendName = "sqlite"

type Store struct {
	db   *sql.DB
	path string

	mu       sync.Mutex
	migrated bool // schema was created when the store was opened
	reported bool
}

var _ ledger.Store = (*Store)(nil)

// Open opens or creates the database at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperr.Storage("sqlite.Open", fmt.Errorf("create db directory: %w", err))
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperr.Storage("sqlite.Open", fmt.Errorf("open sqlite database: %w", err))
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperr.Storage("sqlite.Open", fmt.Errorf("ping database: %w", err))
	}

	applied, err := RunMigrations(path)
	if err != nil {
		db.Close()
		return nil, apperr.Storage("sqlite.Open", err)
	}
	if applied {
		log := logger.FromContext(ctx)
		log.Info().Str("path", path).Msg("Created ledger database schema")
	}

	return &Store{db: db, path: path, migrated: applied}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Initialize re-applies pending migrations. Created is true only the first
// time after the schema was made.
func (s *Store) Initialize(ctx context.Context) (*ledger.Info, error) {
	applied, err := RunMigrations(s.path)
	if err != nil {
		return nil, apperr.Storage("sqlite.Initialize", err)
	}

	s.mu.Lock()
	created := applied || (s.migrated && !s.reported)
	s.reported = true
	s.mu.Unlock()

	return &ledger.Info{Backend: backendName, Title: "ledger_rows", Location: s.path, Created: created}, nil
}

const insertRow = `INSERT INTO ledger_rows
	(id, date, merchant, description, amount, category, type, bank, account, notes, source_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Append inserts rows in one transaction.
func (s *Store) Append(ctx context.Context, rows []ledger.Row) (*ledger.AppendResult, error) {
	if len(rows) == 0 {
		return &ledger.AppendResult{}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Storage("sqlite.Append", fmt.Errorf("begin: %w", err))
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertRow)
	if err != nil {
		return nil, apperr.Storage("sqlite.Append", fmt.Errorf("prepare insert: %w", err))
	}
	defer stmt.Close()

	var first, last int64
	for i, r := range rows {
		res, err := stmt.ExecContext(ctx,
			r.ID, r.Date.String(), r.Merchant, r.Description, r.Amount.String(),
			r.Category, string(r.Type), r.Bank, r.Account, r.Notes, r.SourceID)
		if err != nil {
			return nil, apperr.Storage("sqlite.Append", fmt.Errorf("insert row %d: %w", i, err))
		}
		seq, err := res.LastInsertId()
		if err != nil {
			return nil, apperr.Storage("sqlite.Append", fmt.Errorf("row %d id: %w", i, err))
		}
		if i == 0 {
			first = seq
		}
		last = seq
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Storage("sqlite.Append", fmt.Errorf("commit: %w", err))
	}

	log := logger.FromContext(ctx)
	log.Info().Int("rows", len(rows)).Msg("Appended ledger rows")
	return &ledger.AppendResult{
		Appended: len(rows),
		Range:    fmt.Sprintf("ledger_rows:%d-%d", first, last),
	}, nil
}

// Query pushes the date range down to SQL and applies the rest of the
// filter in memory.
func (s *Store) Query(ctx context.Context, f ledger.Filter) ([]ledger.Row, error) {
	var (
		where []string
		args  []interface{}
	)
	if !f.Start.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, f.Start.String())
	}
	if !f.End.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, f.End.String())
	}

	q := `SELECT id, date, merchant, description, amount, category, type, bank, account, notes, source_id
		FROM ledger_rows`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY seq"

	rs, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, apperr.Storage("sqlite.Query", err)
	}
	defer rs.Close()

	var rows []ledger.Row
	for rs.Next() {
		var (
			r              ledger.Row
			date, amount   string
			txType, source string
		)
		if err := rs.Scan(&r.ID, &date, &r.Merchant, &r.Description, &amount,
			&r.Category, &txType, &r.Bank, &r.Account, &r.Notes, &source); err != nil {
			return nil, apperr.Storage("sqlite.Query", fmt.Errorf("scan: %w", err))
		}
		if r.Date, err = civil.ParseDate(date); err != nil {
			return nil, apperr.Storage("sqlite.Query", fmt.Errorf("row %s: %w", r.ID, err))
		}
		if r.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, apperr.Storage("sqlite.Query", fmt.Errorf("row %s: %w", r.ID, err))
		}
		r.Type = domain.TransactionType(txType)
		r.SourceID = source
		rows = append(rows, r)
	}
	if err := rs.Err(); err != nil {
		return nil, apperr.Storage("sqlite.Query", err)
	}

	return f.Apply(rows), nil
}
