package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dvloznov/budgetrak/internal/ai"
	"github.com/dvloznov/budgetrak/internal/apperr"
	"github.com/dvloznov/budgetrak/internal/domain"
	"github.com/dvloznov/budgetrak/internal/logger"
	"github.com/shopspring/decimal"
)

// Parser extracts statements from documents using a generative model.
type Parser struct {
	model      ai.Generator
	categories []string
	validator  *CategoryValidator
}

// NewParser creates a parser over the built-in category taxonomy.
func NewParser(model ai.Generator) *Parser {
	return &Parser{
		model:      model,
		categories: domain.Categories,
		validator:  NewDefaultCategoryValidator(),
	}
}

// Parse sends the document to the model and returns the extracted statement.
// PDFs and images go as inline attachments; text documents are inlined in
// the prompt. Every transaction in the model output must be well formed.
func (p *Parser) Parse(ctx context.Context, document []byte, sourceID string) (*ParseResult, error) {
	log := logger.FromContext(ctx)

	if len(document) == 0 {
		return nil, apperr.Invalidf("pipeline.Parse", "document %q is empty", sourceID)
	}

	req := ai.Request{
		Prompt: buildExtractionPrompt(p.categories),
		JSON:   true,
	}
	mimeType := detectMIMEType(document)
	switch {
	case isTextDocument(mimeType):
		if !utf8.Valid(document) {
			return nil, apperr.Invalidf("pipeline.Parse", "document %q is not valid UTF-8 text", sourceID)
		}
		req.Prompt += "\nStatement text:\n" + string(document) + "\n"
	case mimeType == "application/pdf" || strings.HasPrefix(mimeType, "image/"):
		req.Attachments = []ai.Attachment{{MIMEType: mimeType, Data: document}}
	default:
		return nil, apperr.Invalidf("pipeline.Parse", "unsupported document type %s for %q", mimeType, sourceID)
	}

	log.Debug().
		Str("source_id", sourceID).
		Str("mime_type", mimeType).
		Int("bytes", len(document)).
		Msg("Sending statement to model")

	resp, err := p.model.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		RawOutput:    resp.Text,
		Model:        resp.Model,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	}

	stmt, err := transformModelOutput(resp.Text, p.validator)
	if err != nil {
		// The raw output is still returned so the failed run can be archived.
		return result, apperr.Parse("pipeline.Parse", err)
	}
	stmt.SourceID = sourceID
	for i := range stmt.Transactions {
		stmt.Transactions[i].SourceID = sourceID
	}
	result.Statement = stmt

	log.Info().
		Str("source_id", sourceID).
		Int("transactions", len(stmt.Transactions)).
		Str("bank", stmt.Account.Bank).
		Msg("Statement parsed")

	return result, nil
}

// Categorize asks the model for the category of a single transaction.
// The answer is mapped onto the taxonomy; anything unrecognized becomes Other.
func (p *Parser) Categorize(ctx context.Context, description string, amount decimal.Decimal) (string, error) {
	if strings.TrimSpace(description) == "" {
		return "", apperr.Invalidf("pipeline.Categorize", "description is required")
	}
	resp, err := p.model.Generate(ctx, ai.Request{
		Prompt: buildCategorizePrompt(p.categories, description, amount),
	})
	if err != nil {
		return "", err
	}
	answer := strings.Trim(strings.TrimSpace(resp.Text), "\"'`.")
	if c := p.validator.Canonical(answer); c != "" {
		return c, nil
	}
	return domain.CategoryOther, nil
}

// cleanModelJSON strips Markdown fences and any text around the JSON value.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if json.Valid([]byte(s)) {
		return s
	}

	// Handle ```json ... ``` or ``` ... ``` wrappers. The closing fence is
	// only cut when an opening one was removed, since string values may
	// contain backticks.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	// Keep from the first opening bracket to its matching last closing one.
	start := strings.IndexAny(s, "{[")
	if start == -1 {
		return s
	}
	closer := "}"
	if s[start] == '[' {
		closer = "]"
	}
	if end := strings.LastIndex(s, closer); end > start {
		s = s[start : end+1]
	}
	return strings.TrimSpace(s)
}

// describeOutput shortens raw model output for error messages.
func describeOutput(raw string) string {
	const max = 200
	if len(raw) <= max {
		return raw
	}
	return fmt.Sprintf("%s... (%d bytes)", raw[:max], len(raw))
}

// DecodeStatement validates a statement supplied as JSON by a caller with
// the same rules applied to model output.
func DecodeStatement(raw []byte) (*domain.Statement, error) {
	stmt, err := transformModelOutput(string(raw), NewDefaultCategoryValidator())
	if err != nil {
		return nil, apperr.Invalid("pipeline.DecodeStatement", err)
	}
	return stmt, nil
}
