package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/dvloznov/budgetrak/internal/auth"
	"github.com/dvloznov/budgetrak/internal/config"
	"github.com/dvloznov/budgetrak/internal/logger"
)

func main() {
	envFile := flag.String("env-file", "", "Path to a .env file (defaults to BUDGETRAK_ENV_FILE or .env)")
	noBrowser := flag.Bool("no-browser", false, "Print the consent URL instead of opening a browser")
	timeout := flag.Duration("timeout", 5*time.Minute, "How long to wait for consent")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithLevel(cfg.LogLevel)

	if err := cfg.ValidateAuth(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := logger.WithContext(context.Background(), log)

	oauthCfg, err := auth.LoadClientConfig(cfg.OAuthClientFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load OAuth client")
	}

	consent := &auth.LocalServerConsent{
		Port:    cfg.OAuthPort,
		Timeout: *timeout,
		Out:     os.Stderr,
	}
	if !*noBrowser {
		consent.OpenBrowser = openBrowser
	}

	p := auth.NewProvider(oauthCfg, auth.NewFileStore(cfg.OAuthTokenFile), consent)
	tok, err := p.Authenticate(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Authentication failed")
	}

	fmt.Printf("Authenticated. Token saved to %s (expires %s).\n", cfg.OAuthTokenFile, tok.Expiry.Format(time.RFC3339))
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
