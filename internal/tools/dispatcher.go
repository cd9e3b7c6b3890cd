// Package tools exposes the assistant's operations as named tools with JSON
// input schemas and routes calls to them one at a time.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/budgetrak/internal/apperr"
	"github.com/dvloznov/budgetrak/internal/logger"
)

// Tool represents a tool definition.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// Handler runs one tool with decoded JSON arguments.
type Handler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// Dispatcher is a registry of tools. Calls are serialised.
type Dispatcher struct {
	mu       sync.Mutex
	tools    []Tool
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

// Register adds a tool. Registering a name twice panics.
func (d *Dispatcher) Register(t Tool, h Handler) {
	if _, ok := d.handlers[t.Name]; ok {
		panic(fmt.Sprintf("tools: %s registered twice", t.Name))
	}
	d.tools = append(d.tools, t)
	d.handlers[t.Name] = h
}

// Tools returns the registered tools in registration order.
func (d *Dispatcher) Tools() []Tool {
	out := make([]Tool, len(d.tools))
	copy(out, d.tools)
	return out
}

// HasTool checks if a tool name is registered
func (d *Dispatcher) HasTool(name string) bool {
	_, ok := d.handlers[name]
	return ok
}

// Call executes a tool by name
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]interface{}) (interface{}, error) {
	h, ok := d.handlers[name]
	if !ok {
		return nil, apperr.Invalidf("tools.Call", "unknown tool: %s", name)
	}
	if args == nil {
		args = map[string]interface{}{}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	log := logger.FromContext(ctx)
	start := time.Now()
	result, err := h(ctx, args)
	if err != nil {
		log.Error().Err(err).
			Str("tool", name).
			Str("kind", string(apperr.KindOf(err))).
			Dur("duration", time.Since(start)).
			Msg("Tool call failed")
		return nil, err
	}
	log.Info().Str("tool", name).Dur("duration", time.Since(start)).Msg("Tool call completed")
	return result, nil
}

// CallJSON runs Call and encodes the outcome. On failure the body is the
// error payload and isError is true.
func (d *Dispatcher) CallJSON(ctx context.Context, name string, args map[string]interface{}) (body []byte, isError bool) {
	result, err := d.Call(ctx, name, args)
	if err != nil {
		return encodeError(err), true
	}
	body, err = json.Marshal(result)
	if err != nil {
		return encodeError(apperr.New(apperr.KindInternal, "tools.Call", fmt.Errorf("encode %s result: %w", name, err))), true
	}
	return body, false
}

// ErrorPayload is the structured form of a failed call.
type ErrorPayload struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Kind    apperr.Kind `json:"kind"`
	Message string      `json:"message"`
}

// NewErrorPayload classifies err for the caller.
func NewErrorPayload(err error) ErrorPayload {
	return ErrorPayload{Error: ErrorDetail{Kind: apperr.KindOf(err), Message: err.Error()}}
}

func encodeError(err error) []byte {
	body, _ := json.Marshal(NewErrorPayload(err))
	return body
}
