package audit

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/budgetrak/internal/logger"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	parsingRunsTable  = "parsing_runs"
	modelOutputsTable = "model_outputs"
)

type ParsingRunRow struct {
	ParsingRunID string `bigquery:"parsing_run_id"`
	SourceID     string `bigquery:"source_id"`

	StartedTS  bigquery.NullTimestamp `bigquery:"started_ts"`
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"`

	ParserType    string `bigquery:"parser_type"`
	ParserVersion string `bigquery:"parser_version"`

	Status       string              `bigquery:"status"`
	ErrorMessage bigquery.NullString `bigquery:"error_message"`

	TokensInput      bigquery.NullInt64 `bigquery:"tokens_input"`
	TokensOutput     bigquery.NullInt64 `bigquery:"tokens_output"`
	TransactionCount int64              `bigquery:"transaction_count"`
}

type ModelOutputRow struct {
	OutputID     string `bigquery:"output_id"`
	ParsingRunID string `bigquery:"parsing_run_id"`
	SourceID     string `bigquery:"source_id"`

	ModelName string `bigquery:"model_name"`
	RawOutput string `bigquery:"raw_output"`

	CreatedTS bigquery.NullTimestamp `bigquery:"created_ts"`
}

// BigQuery writes runs to <dataset>.parsing_runs and <dataset>.model_outputs.
type BigQuery struct {
	client  *bigquery.Client
	dataset string
}

var _ Recorder = (*BigQuery)(nil)

// NewBigQuery opens a client, by default with Application Default Credentials.
func NewBigQuery(ctx context.Context, projectID, dataset string, opts ...option.ClientOption) (*BigQuery, error) {
	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewBigQuery: creating client: %w", err)
	}
	return &BigQuery{client: client, dataset: dataset}, nil
}

// Close closes the BigQuery client connection.
func (b *BigQuery) Close() error {
	if b.client != nil {
		return b.client.Close()
	}
	return nil
}

// EnsureTables creates the dataset and both tables when missing.
func (b *BigQuery) EnsureTables(ctx context.Context) error {
	ds := b.client.Dataset(b.dataset)
	if _, err := ds.Metadata(ctx); err != nil {
		if !isNotFound(err) {
			return fmt.Errorf("EnsureTables: dataset metadata: %w", err)
		}
		if err := ds.Create(ctx, &bigquery.DatasetMetadata{}); err != nil {
			return fmt.Errorf("EnsureTables: create dataset: %w", err)
		}
	}

	tables := []struct {
		name string
		row  any
	}{
		{parsingRunsTable, ParsingRunRow{}},
		{modelOutputsTable, ModelOutputRow{}},
	}
	for _, t := range tables {
		schema, err := bigquery.InferSchema(t.row)
		if err != nil {
			return fmt.Errorf("EnsureTables: infer %s schema: %w", t.name, err)
		}
		tbl := ds.Table(t.name)
		if _, err := tbl.Metadata(ctx); err == nil {
			continue
		} else if !isNotFound(err) {
			return fmt.Errorf("EnsureTables: %s metadata: %w", t.name, err)
		}
		if err := tbl.Create(ctx, &bigquery.TableMetadata{Schema: schema}); err != nil {
			return fmt.Errorf("EnsureTables: create %s: %w", t.name, err)
		}
	}
	return nil
}

// Record inserts the run and, when present, its raw model output.
func (b *BigQuery) Record(ctx context.Context, run *Run) error {
	log := logger.FromContext(ctx)

	runRow, outRow := toRows(run)
	ds := b.client.Dataset(b.dataset)

	if err := ds.Table(parsingRunsTable).Inserter().Put(ctx, runRow); err != nil {
		return fmt.Errorf("Record: inserting parsing run: %w", err)
	}
	if outRow != nil {
		if err := ds.Table(modelOutputsTable).Inserter().Put(ctx, outRow); err != nil {
			return fmt.Errorf("Record: inserting model output: %w", err)
		}
	}

	log.Debug().
		Str("parsing_run_id", run.ID).
		Str("status", string(run.Status)).
		Msg("Archived parsing run")
	return nil
}

// toRows maps a run onto table rows. The output row is nil when the model
// never answered.
func toRows(run *Run) (*ParsingRunRow, *ModelOutputRow) {
	runRow := &ParsingRunRow{
		ParsingRunID:     run.ID,
		SourceID:         run.SourceID,
		StartedTS:        bigquery.NullTimestamp{Timestamp: run.StartedAt, Valid: !run.StartedAt.IsZero()},
		FinishedTS:       bigquery.NullTimestamp{Timestamp: run.FinishedAt, Valid: !run.FinishedAt.IsZero()},
		ParserType:       run.ParserType,
		ParserVersion:    run.ParserVersion,
		Status:           string(run.Status),
		ErrorMessage:     bigquery.NullString{StringVal: run.Error, Valid: run.Error != ""},
		TokensInput:      bigquery.NullInt64{Int64: int64(run.InputTokens), Valid: run.InputTokens > 0},
		TokensOutput:     bigquery.NullInt64{Int64: int64(run.OutputTokens), Valid: run.OutputTokens > 0},
		TransactionCount: int64(run.TransactionCount),
	}

	if run.RawOutput == "" {
		return runRow, nil
	}
	return runRow, &ModelOutputRow{
		OutputID:     uuid.NewString(),
		ParsingRunID: run.ID,
		SourceID:     run.SourceID,
		ModelName:    run.Model,
		RawOutput:    run.RawOutput,
		CreatedTS:    runRow.FinishedTS,
	}
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
