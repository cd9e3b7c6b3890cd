package pipeline

import (
	"context"

	"github.com/dvloznov/budgetrak/internal/audit"
	"github.com/dvloznov/budgetrak/internal/ledger"
	"github.com/dvloznov/budgetrak/internal/storage"
)

// DocumentFetcher downloads statement bytes by identifier.
type DocumentFetcher interface {
	Download(ctx context.Context, id string) ([]byte, error)
}

// FileMover relocates a processed statement.
type FileMover interface {
	Move(ctx context.Context, id, folderID string) (*storage.File, error)
}

// StatementParser turns document bytes into a statement.
// This interface enables mocking of the model-backed parser.
type StatementParser interface {
	Parse(ctx context.Context, document []byte, sourceID string) (*ParseResult, error)
}

// LedgerWriter appends rows to the ledger.
type LedgerWriter interface {
	Append(ctx context.Context, rows []ledger.Row) (*ledger.AppendResult, error)
}

// RunRecorder archives parse runs.
type RunRecorder = audit.Recorder
