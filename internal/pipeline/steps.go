package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/budgetrak/internal/audit"
	"github.com/dvloznov/budgetrak/internal/ledger"
	"github.com/dvloznov/budgetrak/internal/logger"
)

// PipelineStep represents a single step in the import pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	SourceID        string
	ProcessedFolder string

	Run      *audit.Run
	Document []byte
	Parsed   *ParseResult
	Rows     []ledger.Row
	Appended *ledger.AppendResult
	MovedTo  string
}

// Step 1: FetchDocumentStep downloads the statement.
type FetchDocumentStep struct {
	Fetcher DocumentFetcher
}

func (s *FetchDocumentStep) Execute(ctx context.Context, state *PipelineState) error {
	data, err := s.Fetcher.Download(ctx, state.SourceID)
	if err != nil {
		return err
	}
	state.Document = data
	return nil
}

// Step 2: ParseStatementStep sends the document to the model.
type ParseStatementStep struct {
	Parser StatementParser
}

func (s *ParseStatementStep) Execute(ctx context.Context, state *PipelineState) error {
	result, err := s.Parser.Parse(ctx, state.Document, state.SourceID)
	if result != nil {
		state.Parsed = result
		state.Run.RawOutput = result.RawOutput
		state.Run.Model = result.Model
		state.Run.InputTokens = result.InputTokens
		state.Run.OutputTokens = result.OutputTokens
	}
	if err != nil {
		return err
	}
	state.Run.TransactionCount = len(result.Statement.Transactions)
	state.Rows = ledger.RowsFromStatement(result.Statement.Account, result.Statement.Transactions)
	return nil
}

// Step 3: AppendLedgerStep writes the rows to the ledger.
type AppendLedgerStep struct {
	Ledger LedgerWriter
}

func (s *AppendLedgerStep) Execute(ctx context.Context, state *PipelineState) error {
	if len(state.Rows) == 0 {
		state.Appended = &ledger.AppendResult{}
		return nil
	}
	res, err := s.Ledger.Append(ctx, state.Rows)
	if err != nil {
		return err
	}
	state.Appended = res
	return nil
}

// Step 4: ArchiveSourceStep moves the statement to the processed folder.
// It is skipped when no folder is configured or the source cannot be moved.
type ArchiveSourceStep struct {
	Mover FileMover
}

func (s *ArchiveSourceStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Mover == nil || state.ProcessedFolder == "" {
		return nil
	}
	moved, err := s.Mover.Move(ctx, state.SourceID, state.ProcessedFolder)
	if err != nil {
		// Rows are already in the ledger, so the import still stands.
		log := logger.FromContext(ctx)
		log.Warn().Err(err).
			Str("source_id", state.SourceID).
			Msg("Failed to move statement to processed folder")
		return nil
	}
	state.MovedTo = state.ProcessedFolder
	if moved != nil && len(moved.Parents) > 0 {
		state.MovedTo = moved.Parents[0]
	}
	return nil
}

// Step 5: MarkSuccessStep records the finished run.
type MarkSuccessStep struct {
	Recorder RunRecorder
}

func (s *MarkSuccessStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Run.Succeed()
	recordRun(ctx, s.Recorder, state.Run)
	return nil
}

// recordRun archives a run. Archive failures are logged only.
func recordRun(ctx context.Context, rec RunRecorder, run *audit.Run) {
	if rec == nil {
		return
	}
	if err := rec.Record(ctx, run); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).
			Str("run_id", run.ID).
			Msg("Failed to archive parse run")
	}
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

func newRun(sourceID string) *audit.Run {
	return &audit.Run{
		ID:            audit.NewRunID(),
		SourceID:      sourceID,
		ParserType:    DefaultParserType,
		ParserVersion: DefaultParserVersion,
		StartedAt:     time.Now(),
	}
}
