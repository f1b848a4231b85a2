package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"fatura-ingest/internal/bill"
	"fatura-ingest/internal/extract"
	"fatura-ingest/internal/mailbox"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// Local deployments keep mailbox credentials in a .env file
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment from .env")
	}

	fs := ff.NewFlagSet("fatura-ingest")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "fatura-ingest.db", "Database file path")
		storagePath = fs.StringLong("storage", "./faturas", "Blob storage directory path")
		imapHost    = fs.StringLong("imap-host", "imap.gmail.com", "IMAP server host")
		imapPort    = fs.IntLong("imap-port", 993, "IMAP server port")
		imapUser    = fs.StringLong("imap-user", "", "IMAP account user (or set FATURA_INGEST_IMAP_USER)")
		imapPass    = fs.StringLong("imap-pass", "", "IMAP account password (or set FATURA_INGEST_IMAP_PASS)")
		window      = fs.IntLong("window", 50, "How many of the most recent inbox messages to scan per run")
		rulesName   = fs.StringLong("rules", "default", "Extraction rule set: 'default' or 'strict'")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		once        = fs.BoolLong("once", "Run a single ingestion and exit instead of serving HTTP")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("FATURA_INGEST"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	rules, err := extract.RuleSetByName(*rulesName)
	if err != nil {
		slog.Error("Invalid rule set", "error", err)
		os.Exit(1)
	}

	slog.Info("Initializing database...")
	db, err := bill.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	slog.Info("Initializing blob storage...")
	store, err := bill.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	connector := mailbox.NewConnector(mailbox.Config{
		Host:     *imapHost,
		Port:     *imapPort,
		User:     *imapUser,
		Password: *imapPass,
	})
	extractor := extract.NewBillExtractor(rules)

	billService := bill.NewService(db, connector, extractor, store, *window)

	if *once {
		summary, err := billService.RunIngestion()
		if err != nil {
			slog.Error("Ingestion run failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Ingestion run complete",
			"messages_scanned", summary.MessagesScanned,
			"attachments_found", summary.AttachmentsFound,
			"blobs_stored", summary.BlobsStored,
			"duplicates_skipped", summary.DuplicatesSkipped,
			"bills_saved", summary.BillsSaved,
			"failed", summary.Failed,
		)
		return
	}

	basicAuth := bill.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := bill.NewServer(billService, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
