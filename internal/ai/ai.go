// Package ai sends prompts and documents to a generative model.
package ai

import "context"

// Attachment is an inline document sent with the prompt.
type Attachment struct {
	MIMEType string
	Data     []byte
}

type Request struct {
	Prompt      string
	Attachments []Attachment

	// JSON asks the model for a JSON response body.
	JSON bool
}

type Response struct {
	Text         string
	Model        string
	InputTokens  int32
	OutputTokens int32
}

// Generator is implemented by model clients.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}
