package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// LocalServerConsent runs the browser consent flow with a loopback redirect
// to http://localhost:<Port>/callback. That URI must be registered on the
// OAuth client.
type LocalServerConsent struct {
	Port    int
	Timeout time.Duration
	Out     io.Writer

	// OpenBrowser is called with the consent URL. Optional.
	OpenBrowser func(url string) error
}

type callbackResult struct {
	code string
	err  error
}

func (c *LocalServerConsent) Consent(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	port := c.Port
	if port == 0 {
		port = 8085
	}
	timeout := c.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	out := c.Out
	if out == nil {
		out = os.Stderr
	}

	conf := *cfg
	conf.RedirectURL = "http://localhost:" + strconv.Itoa(port) + "/callback"
	state := uuid.NewString()

	ln, err := net.Listen("tcp", "127.0.0.1:"+strconv.Itoa(port))
	if err != nil {
		return nil, fmt.Errorf("listen for oauth callback: %w", err)
	}

	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callbackResult
		switch {
		case q.Get("error") != "":
			res.err = fmt.Errorf("oauth error: %s", q.Get("error"))
			http.Error(w, "OAuth error: "+q.Get("error"), http.StatusBadRequest)
		case q.Get("state") != state:
			res.err = errors.New("oauth state mismatch")
			http.Error(w, "state mismatch", http.StatusBadRequest)
		case q.Get("code") == "":
			res.err = errors.New("oauth callback without code")
			http.Error(w, "missing code", http.StatusBadRequest)
		default:
			res.code = q.Get("code")
			fmt.Fprintln(w, "You may close this window and return to the terminal.")
		}
		select {
		case results <- res:
		default:
		}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	url := conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintf(out, "Open this URL to authorize:\n%s\n", url)
	if c.OpenBrowser != nil {
		if err := c.OpenBrowser(url); err != nil {
			fmt.Fprintf(out, "Could not open a browser automatically: %v\n", err)
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		tok, err := conf.Exchange(ctx, res.code)
		if err != nil {
			return nil, fmt.Errorf("token exchange: %w", err)
		}
		return tok, nil
	case <-timer.C:
		return nil, errors.New("authorization timed out")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
