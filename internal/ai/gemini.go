package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dvloznov/budgetrak/internal/apperr"
	"github.com/dvloznov/budgetrak/internal/logger"
	"google.golang.org/genai"
)

// DefaultModelName is used when no model is configured.
const DefaultModelName = "gemini-2.5-flash"

type Gemini struct {
	client *genai.Client
	model  string
}

// Option adjusts the underlying genai client configuration.
type Option func(*genai.ClientConfig)

// WithBaseURL points the client at another endpoint.
func WithBaseURL(url string) Option {
	return func(c *genai.ClientConfig) { c.HTTPOptions.BaseURL = url }
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *genai.ClientConfig) { c.HTTPClient = hc }
}

// NewGemini creates a client for the Gemini API using an API key.
func NewGemini(ctx context.Context, apiKey, model string, opts ...Option) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apperr.Config("ai.NewGemini", errors.New("missing Gemini API key"))
	}
	if model == "" {
		model = DefaultModelName
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, apperr.Upstream("ai.NewGemini", fmt.Errorf("create genai client: %w", err))
	}
	return &Gemini{client: client, model: model}, nil
}

// Model returns the configured model name.
func (g *Gemini) Model() string { return g.model }

func (g *Gemini) Generate(ctx context.Context, req Request) (*Response, error) {
	log := logger.FromContext(ctx)

	parts := []*genai.Part{{Text: req.Prompt}}
	for _, a := range req.Attachments {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: a.MIMEType, Data: a.Data},
		})
	}
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	var cfg *genai.GenerateContentConfig
	if req.JSON {
		cfg = &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      genai.Ptr[float32](0),
		}
	}

	log.Debug().
		Str("model", g.model).
		Int("attachments", len(req.Attachments)).
		Bool("json", req.JSON).
		Msg("Calling model")

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, classify(fmt.Errorf("generate content: %w", err))
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Upstream("ai.Generate", errors.New("empty response from model"))
	}

	out := &Response{Text: text, Model: g.model}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if u := resp.UsageMetadata; u != nil {
		out.InputTokens = u.PromptTokenCount
		out.OutputTokens = u.CandidatesTokenCount
	}

	log.Debug().
		Int32("tokens_input", out.InputTokens).
		Int32("tokens_output", out.OutputTokens).
		Msg("Model responded")

	return out, nil
}

// classify maps rejected credentials to auth errors and everything else
// the endpoint returns to upstream errors.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized, apiErr.Code == http.StatusForbidden:
			return apperr.Auth("ai.Generate", err)
		case apiErr.Code == http.StatusBadRequest && strings.Contains(apiErr.Message, "API key"):
			return apperr.Auth("ai.Generate", err)
		}
	}
	return apperr.Upstream("ai.Generate", err)
}
