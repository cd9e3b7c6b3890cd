package pipeline

import "github.com/dvloznov/budgetrak/internal/domain"

// ParseResult is a parsed statement plus what the model returned for it.
type ParseResult struct {
	Statement    *domain.Statement
	RawOutput    string
	Model        string
	InputTokens  int32
	OutputTokens int32
}

// ImportResult summarizes one import_statement run.
type ImportResult struct {
	RunID        string             `json:"run_id"`
	SourceID     string             `json:"source_id"`
	Account      domain.AccountInfo `json:"account_info"`
	Transactions int                `json:"transactions"`
	Appended     int                `json:"appended"`
	Range        string             `json:"range,omitempty"`
	MovedTo      string             `json:"moved_to,omitempty"`
}
