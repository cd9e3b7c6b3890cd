// Package auth obtains and refreshes the Google OAuth token used by the
// Drive and Sheets clients.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/dvloznov/budgetrak/internal/apperr"
	"github.com/dvloznov/budgetrak/internal/logger"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"
)

// Scopes requested during consent.
var Scopes = []string{drive.DriveScope, sheets.SpreadsheetsScope}

// Consenter runs the interactive authorization step.
type Consenter interface {
	Consent(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)
}

type Provider struct {
	config  *oauth2.Config
	store   TokenStore
	consent Consenter

	mu     sync.Mutex
	source oauth2.TokenSource
}

// LoadClientConfig reads the OAuth client secrets downloaded from the cloud console.
func LoadClientConfig(path string, scopes ...string) (*oauth2.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Auth("auth.LoadClientConfig",
			fmt.Errorf("credentials file not found: %s (download OAuth client credentials from the Google Cloud Console): %w", path, err))
	}
	if len(scopes) == 0 {
		scopes = Scopes
	}
	cfg, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, apperr.Auth("auth.LoadClientConfig", fmt.Errorf("oauth config: %w", err))
	}
	return cfg, nil
}

// NewProvider wires a provider. consent may be nil for non-interactive
// processes; Authenticate then fails instead of prompting.
func NewProvider(cfg *oauth2.Config, store TokenStore, consent Consenter) *Provider {
	return &Provider{config: cfg, store: store, consent: consent}
}

// Authenticate makes sure a usable token is stored. A valid token is
// returned as is; an expired one is refreshed; otherwise consent runs.
func (p *Provider) Authenticate(ctx context.Context) (*oauth2.Token, error) {
	log := logger.FromContext(ctx)

	tok, err := p.store.Load()
	switch {
	case err == nil && tok.Valid():
		log.Debug().Msg("Stored token is valid")
		return tok, nil
	case err == nil && tok.RefreshToken != "":
		log.Info().Msg("Refreshing expired token")
		fresh, rerr := p.config.TokenSource(ctx, tok).Token()
		if rerr == nil {
			if err := p.store.Save(fresh); err != nil {
				return nil, apperr.Auth("auth.Authenticate", err)
			}
			p.reset()
			return fresh, nil
		}
		log.Warn().Err(rerr).Msg("Token refresh failed, falling back to consent")
	case err != nil && !errors.Is(err, ErrNoToken):
		return nil, apperr.Auth("auth.Authenticate", err)
	}

	if p.consent == nil {
		return nil, apperr.Auth("auth.Authenticate", errors.New("interactive consent required: run budgetrak-auth"))
	}

	log.Info().Msg("Running OAuth consent flow")
	tok, err = p.consent.Consent(ctx, p.config)
	if err != nil {
		return nil, apperr.Auth("auth.Authenticate", err)
	}
	if err := p.store.Save(tok); err != nil {
		return nil, apperr.Auth("auth.Authenticate", err)
	}
	p.reset()
	log.Info().Msg("Authentication successful")
	return tok, nil
}

// Credentials returns an auto-refreshing token source backed by the stored
// token. It never prompts. The source is built once and then reused.
func (p *Provider) Credentials(ctx context.Context) (oauth2.TokenSource, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.source != nil {
		return p.source, nil
	}

	tok, err := p.store.Load()
	if errors.Is(err, ErrNoToken) {
		return nil, apperr.Auth("auth.Credentials", errors.New("consent has not been granted: run budgetrak-auth"))
	}
	if err != nil {
		return nil, apperr.Auth("auth.Credentials", err)
	}
	if !tok.Valid() && tok.RefreshToken == "" {
		return nil, apperr.Auth("auth.Credentials", errors.New("stored token expired and cannot be refreshed: run budgetrak-auth"))
	}

	// Refreshes happen long after the calling request finished.
	base := p.config.TokenSource(context.WithoutCancel(ctx), tok)
	p.source = &persistingSource{
		base:  base,
		store: p.store,
		last:  tok.AccessToken,
		log:   logger.FromContext(ctx),
	}
	return p.source, nil
}

// HTTPClient returns an authorized client for the Google API services.
func (p *Provider) HTTPClient(ctx context.Context) (*http.Client, error) {
	ts, err := p.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(context.WithoutCancel(ctx), ts), nil
}

func (p *Provider) reset() {
	p.mu.Lock()
	p.source = nil
	p.mu.Unlock()
}

// persistingSource writes refreshed tokens back to the store.
type persistingSource struct {
	base  oauth2.TokenSource
	store TokenStore
	log   zerolog.Logger

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, apperr.Auth("auth.Token", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.store.Save(tok); err != nil {
			s.log.Warn().Err(err).Msg("Failed to persist refreshed token")
		}
	}
	return tok, nil
}
