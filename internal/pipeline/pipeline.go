package pipeline

import (
	"context"
	"strings"

	"github.com/dvloznov/budgetrak/internal/apperr"
	"github.com/dvloznov/budgetrak/internal/logger"
)

// Importer takes a stored statement all the way into the ledger.
type Importer struct {
	fetcher         DocumentFetcher
	parser          StatementParser
	ledger          LedgerWriter
	mover           FileMover
	recorder        RunRecorder
	processedFolder string
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithArchive moves imported statements into folderID.
func WithArchive(mover FileMover, folderID string) ImporterOption {
	return func(i *Importer) {
		i.mover = mover
		i.processedFolder = folderID
	}
}

// WithRecorder archives every run, successful or not.
func WithRecorder(rec RunRecorder) ImporterOption {
	return func(i *Importer) {
		i.recorder = rec
	}
}

func NewImporter(fetcher DocumentFetcher, parser StatementParser, ledger LedgerWriter, opts ...ImporterOption) *Importer {
	i := &Importer{fetcher: fetcher, parser: parser, ledger: ledger}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Import fetches, parses and saves one statement. A failing step records a
// FAILED run before the error is returned.
func (i *Importer) Import(ctx context.Context, sourceID string) (*ImportResult, error) {
	if strings.TrimSpace(sourceID) == "" {
		return nil, apperr.Invalidf("pipeline.Import", "source id is required")
	}

	log := logger.FromContext(ctx)
	state := &PipelineState{
		SourceID:        sourceID,
		ProcessedFolder: i.processedFolder,
		Run:             newRun(sourceID),
	}

	log.Info().Str("source_id", sourceID).Str("run_id", state.Run.ID).Msg("Starting statement import")

	p := NewPipeline(
		&FetchDocumentStep{Fetcher: i.fetcher},
		&ParseStatementStep{Parser: i.parser},
		&AppendLedgerStep{Ledger: i.ledger},
		&ArchiveSourceStep{Mover: i.mover},
		&MarkSuccessStep{Recorder: i.recorder},
	)
	if err := p.Execute(ctx, state); err != nil {
		state.Run.Fail(err)
		recordRun(ctx, i.recorder, state.Run)
		log.Error().Err(err).Str("source_id", sourceID).Msg("Statement import failed")
		return nil, err
	}

	result := &ImportResult{
		RunID:        state.Run.ID,
		SourceID:     sourceID,
		Account:      state.Parsed.Statement.Account,
		Transactions: len(state.Rows),
		Appended:     state.Appended.Appended,
		Range:        state.Appended.Range,
		MovedTo:      state.MovedTo,
	}
	log.Info().
		Str("source_id", sourceID).
		Int("rows", result.Appended).
		Msg("Statement import completed")
	return result, nil
}
