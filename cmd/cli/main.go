package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/budgetrak/internal/advisor"
	"github.com/dvloznov/budgetrak/internal/app"
	"github.com/dvloznov/budgetrak/internal/audit"
	"github.com/dvloznov/budgetrak/internal/config"
	"github.com/dvloznov/budgetrak/internal/ledger"
	"github.com/dvloznov/budgetrak/internal/ledger/notion"
	"github.com/dvloznov/budgetrak/internal/ledger/sqlite"
	"github.com/dvloznov/budgetrak/internal/logger"
	"github.com/dvloznov/budgetrak/internal/storage/gcs"
	"github.com/rs/zerolog"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "parse":
		runParse(log)
	case "import":
		runImport(log)
	case "upload":
		runUpload(log)
	case "init":
		runInit(log)
	case "summary":
		runSummary(log)
	case "sync":
		runSync(log)
	case "migrate":
		runMigrate(log)
	case "call":
		runCall(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("BudgetTrak CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  parse     Parse a statement (local file, Drive ID or gs:// URI) and print it")
	fmt.Println("  import    Parse a statement and save it to the ledger")
	fmt.Println("  upload    Upload a PDF to the configured GCS bucket")
	fmt.Println("  init      Prepare the configured ledger")
	fmt.Println("  summary   Print the spending summary for a date range")
	fmt.Println("  sync      Copy ledger rows to another backend (sqlite or notion)")
	fmt.Println("  migrate   Apply SQLite migrations and create audit tables")
	fmt.Println("  call      Invoke a tool by name with JSON arguments")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// setup loads configuration and attaches the logger to a context that
// expires after timeout.
func setup(log zerolog.Logger, envFile string, timeout time.Duration) (context.Context, context.CancelFunc, *config.Config) {
	cfg, err := config.Load(envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = log.Level(logger.ParseLevel(cfg.LogLevel))
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	return logger.WithContext(ctx, log), cancel, cfg
}

func mustApp(ctx context.Context, log zerolog.Logger, cfg *config.Config) *app.App {
	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}
	return a
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func runParse(log zerolog.Logger) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	envFile := fs.String("env-file", "", "Path to a .env file")
	filePath := fs.String("file", "", "Path to a local statement (PDF, image or text)")
	id := fs.String("id", "", "Drive file ID or gs:// URI of the statement")
	fs.Parse(os.Args[2:])

	if (*filePath == "") == (*id == "") {
		log.Fatal().Msg("Usage: cli parse -file PATH | -id ID")
	}

	ctx, cancel, cfg := setup(log, *envFile, 5*time.Minute)
	defer cancel()
	a := mustApp(ctx, log, cfg)
	defer a.Close()

	var (
		doc      []byte
		sourceID string
		err      error
	)
	if *filePath != "" {
		sourceID = filepath.Base(*filePath)
		doc, err = os.ReadFile(*filePath)
	} else {
		sourceID = *id
		doc, err = a.Files.Download(ctx, *id)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read statement")
	}

	res, err := a.Parser.Parse(ctx, doc, sourceID)
	if err != nil {
		log.Fatal().Err(err).Msg("Parse failed")
	}
	log.Info().
		Int("transactions", len(res.Statement.Transactions)).
		Int32("input_tokens", res.InputTokens).
		Int32("output_tokens", res.OutputTokens).
		Msg("Parsed statement")
	printJSON(res.Statement)
}

func runImport(log zerolog.Logger) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	envFile := fs.String("env-file", "", "Path to a .env file")
	id := fs.String("id", "", "Drive file ID or gs:// URI of the statement")
	fs.Parse(os.Args[2:])

	if *id == "" {
		log.Fatal().Msg("Error: -id is required")
	}

	ctx, cancel, cfg := setup(log, *envFile, 5*time.Minute)
	defer cancel()
	a := mustApp(ctx, log, cfg)
	defer a.Close()

	res, err := a.Importer.Import(ctx, *id)
	if err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}
	printJSON(res)
}

func runUpload(log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	envFile := fs.String("env-file", "", "Path to a .env file")
	filePath := fs.String("file", "", "Path to local PDF file")
	objectName := fs.String("object", "", "GCS object name (defaults to filename)")
	fs.Parse(os.Args[2:])

	if *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -file PATH [-object NAME]")
	}
	if *objectName == "" {
		*objectName = filepath.Base(*filePath)
	}

	ctx, cancel, cfg := setup(log, *envFile, 5*time.Minute)
	defer cancel()
	if cfg.GCSBucket == "" {
		log.Fatal().Msg("Error: GCS_BUCKET is not set")
	}

	client, err := gcs.New(ctx, cfg.GCSBucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage client")
	}
	defer client.Close()

	uri, err := client.Upload(ctx, *objectName, *filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}
	fmt.Printf("Uploaded %s to %s\n", *filePath, uri)
}

func runInit(log zerolog.Logger) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	envFile := fs.String("env-file", "", "Path to a .env file")
	fs.Parse(os.Args[2:])

	ctx, cancel, cfg := setup(log, *envFile, time.Minute)
	defer cancel()
	a := mustApp(ctx, log, cfg)
	defer a.Close()

	info, err := a.Ledger.Initialize(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize ledger")
	}
	printJSON(info)
}

func parseDateFlag(log zerolog.Logger, name, value string) civil.Date {
	if value == "" {
		return civil.Date{}
	}
	d, err := civil.ParseDate(value)
	if err != nil {
		log.Fatal().Err(err).Str(name, value).Msgf("Error: invalid -%s, expected YYYY-MM-DD", name)
	}
	return d
}

func runSummary(log zerolog.Logger) {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	envFile := fs.String("env-file", "", "Path to a .env file")
	start := fs.String("start-date", "", "Start date in YYYY-MM-DD format")
	end := fs.String("end-date", "", "End date in YYYY-MM-DD format")
	fs.Parse(os.Args[2:])

	period := advisor.Period{
		Start: parseDateFlag(log, "start-date", *start),
		End:   parseDateFlag(log, "end-date", *end),
	}

	ctx, cancel, cfg := setup(log, *envFile, 2*time.Minute)
	defer cancel()
	a := mustApp(ctx, log, cfg)
	defer a.Close()

	summary, err := a.Advisor.Summarize(ctx, period)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to summarize")
	}

	fmt.Println("\n=== Spending Summary ===")
	fmt.Printf("Transactions: %d\n", summary.TransactionCount)
	fmt.Printf("Spent:        %s\n", summary.TotalSpent.StringFixed(2))
	fmt.Printf("Income:       %s\n", summary.TotalIncome.StringFixed(2))
	fmt.Printf("Net:          %s\n", summary.Net.StringFixed(2))
	fmt.Println("\n=== By Category ===")
	for _, c := range summary.ByCategory {
		fmt.Printf("%-20s %12s  (%d)\n", c.Category, c.Total.StringFixed(2), c.Count)
	}
	fmt.Println()
}

func runSync(log zerolog.Logger) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	envFile := fs.String("env-file", "", "Path to a .env file")
	target := fs.String("to", "", "Target backend: sqlite or notion (required)")
	sqlitePath := fs.String("sqlite-path", "", "SQLite file for -to sqlite (defaults to SQLITE_DB_PATH)")
	start := fs.String("start-date", "", "Start date in YYYY-MM-DD format")
	end := fs.String("end-date", "", "End date in YYYY-MM-DD format")
	dryRun := fs.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	fs.Parse(os.Args[2:])

	filter := ledger.Filter{
		Start: parseDateFlag(log, "start-date", *start),
		End:   parseDateFlag(log, "end-date", *end),
	}
	if !filter.Start.IsZero() && !filter.End.IsZero() && filter.End.Before(filter.Start) {
		log.Fatal().Msg("Error: end-date must be after start-date")
	}

	ctx, cancel, cfg := setup(log, *envFile, 10*time.Minute)
	defer cancel()

	var to ledger.Store
	switch *target {
	case config.BackendSQLite:
		path := *sqlitePath
		if path == "" {
			path = cfg.SQLitePath
		}
		s, err := sqlite.Open(ctx, path)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open SQLite ledger")
		}
		defer s.Close()
		to = s
	case config.BackendNotion:
		if cfg.NotionToken == "" || cfg.NotionDatabase == "" {
			log.Fatal().Msg("Error: NOTION_TOKEN and NOTION_DATABASE_ID are required")
		}
		to = notion.New(notion.NewAPIClient(cfg.NotionToken), cfg.NotionDatabase)
	default:
		log.Fatal().Str("to", *target).Msg("Error: -to must be sqlite or notion")
	}
	if *target == cfg.LedgerBackend {
		log.Fatal().Str("to", *target).Msg("Error: target is the configured ledger")
	}

	a := mustApp(ctx, log, cfg)
	defer a.Close()

	if !*dryRun {
		if _, err := to.Initialize(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to prepare target ledger")
		}
	}
	res, err := ledger.Sync(ctx, a.Ledger, to, filter, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}
	printJSON(res)
}

func runMigrate(log zerolog.Logger) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	envFile := fs.String("env-file", "", "Path to a .env file")
	fs.Parse(os.Args[2:])

	ctx, cancel, cfg := setup(log, *envFile, 2*time.Minute)
	defer cancel()

	if cfg.SQLitePath != "" && cfg.LedgerBackend == config.BackendSQLite {
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("SQLite migration failed")
		}
		s.Close()
		fmt.Printf("SQLite ledger at %s is up to date.\n", cfg.SQLitePath)
	}

	if cfg.AuditEnabled() {
		bq, err := audit.NewBigQuery(ctx, cfg.AuditProject, cfg.AuditDataset)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery client")
		}
		defer bq.Close()
		if err := bq.EnsureTables(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to create audit tables")
		}
		fmt.Printf("Audit tables ready in %s.%s.\n", cfg.AuditProject, cfg.AuditDataset)
	}
}

func runCall(log zerolog.Logger) {
	fs := flag.NewFlagSet("call", flag.ExitOnError)
	envFile := fs.String("env-file", "", "Path to a .env file")
	tool := fs.String("tool", "", "Tool name (required)")
	rawArgs := fs.String("args", "{}", "Tool arguments as a JSON object")
	fs.Parse(os.Args[2:])

	if *tool == "" {
		log.Fatal().Msg("Usage: cli call -tool NAME [-args JSON]")
	}
	var args map[string]interface{}
	if err := json.Unmarshal([]byte(*rawArgs), &args); err != nil {
		log.Fatal().Err(err).Msg("Error: -args must be a JSON object")
	}

	ctx, cancel, cfg := setup(log, *envFile, 5*time.Minute)
	defer cancel()
	a := mustApp(ctx, log, cfg)
	defer a.Close()

	body, isError := a.Tools().NewDispatcher().CallJSON(ctx, *tool, args)
	var pretty interface{}
	if err := json.Unmarshal(body, &pretty); err == nil {
		printJSON(pretty)
	} else {
		fmt.Println(string(body))
	}
	if isError {
		os.Exit(1)
	}
}
