// Package audit archives statement parse runs and raw model output.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// maxErrorLen caps stored error messages.
const maxErrorLen = 2000

// Run is one attempt to turn a statement into ledger rows.
type Run struct {
	ID            string
	SourceID      string
	ParserType    string
	ParserVersion string
	Model         string

	StartedAt  time.Time
	FinishedAt time.Time
	Status     Status
	Error      string

	RawOutput        string
	InputTokens      int32
	OutputTokens     int32
	TransactionCount int
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Fail marks the run failed with err.
func (r *Run) Fail(err error) {
	r.Status = StatusFailed
	r.FinishedAt = time.Now()
	if err != nil {
		r.Error = err.Error()
		if len(r.Error) > maxErrorLen {
			r.Error = r.Error[:maxErrorLen]
		}
	}
}

// Succeed marks the run successful.
func (r *Run) Succeed() {
	r.Status = StatusSuccess
	r.FinishedAt = time.Now()
	r.Error = ""
}

// Recorder stores finished runs.
type Recorder interface {
	Record(ctx context.Context, run *Run) error
}

// Noop discards runs. Used when no archive is configured.
type Noop struct{}

func (Noop) Record(context.Context, *Run) error { return nil }
