// Package apperr defines the error kinds surfaced to tool callers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// Kind classifies a failure for the tool caller.
type Kind string

const (
	KindAuth         Kind = "auth_error"
	KindStorage      Kind = "storage_error"
	KindParse        Kind = "parse_error"
	KindConfig       Kind = "config_error"
	KindInvalidInput Kind = "invalid_input"
	KindUpstream     Kind = "upstream_error"
	KindInternal     Kind = "internal_error"
)

// Sentinels for errors.Is checks.
var (
	ErrAuth         = errors.New("auth error")
	ErrStorage      = errors.New("storage error")
	ErrParse        = errors.New("parse error")
	ErrConfig       = errors.New("config error")
	ErrInvalidInput = errors.New("invalid input")
	ErrUpstream     = errors.New("upstream error")
)

var sentinels = map[Kind]error{
	KindAuth:         ErrAuth,
	KindStorage:      ErrStorage,
	KindParse:        ErrParse,
	KindConfig:       ErrConfig,
	KindInvalidInput: ErrInvalidInput,
	KindUpstream:     ErrUpstream,
}

// Error carries a kind and the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// New wraps err with kind and op. A nil err yields nil.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func Auth(op string, err error) error     { return New(KindAuth, op, err) }
func Storage(op string, err error) error  { return New(KindStorage, op, err) }
func Parse(op string, err error) error    { return New(KindParse, op, err) }
func Config(op string, err error) error   { return New(KindConfig, op, err) }
func Invalid(op string, err error) error  { return New(KindInvalidInput, op, err) }
func Upstream(op string, err error) error { return New(KindUpstream, op, err) }

// Parsef builds a parse error from a format string.
func Parsef(op, format string, args ...any) error {
	return Parse(op, fmt.Errorf(format, args...))
}

// Invalidf builds an invalid-input error from a format string.
func Invalidf(op, format string, args ...any) error {
	return Invalid(op, fmt.Errorf(format, args...))
}

// KindOf returns the kind of the outermost classified error in the chain,
// or KindInternal when none is found.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// FromGoogle classifies an error returned by a google.golang.org/api client.
// 401 and 403 become auth errors, everything else a storage error.
func FromGoogle(op string, err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return Auth(op, err)
		}
	}
	return Storage(op, err)
}
