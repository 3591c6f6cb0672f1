package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"edadash/adapters/postgres"
	"edadash/internal/analysis"
	"edadash/internal/config"
	"edadash/internal/engine"
	"edadash/internal/store"
	"edadash/ports"
	"edadash/ui"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var analyzer ports.Analyzer
	if cfg.Engine.URL != "" {
		log.Printf("Using remote analysis engine at %s", cfg.Engine.URL)
		analyzer = analysis.NewClient(cfg.Engine.URL, cfg.Engine.UploadTimeout)
	} else {
		log.Println("Using in-process analysis engine")
		analyzer = engine.New(engine.Options{
			PreviewRows:    cfg.Engine.PreviewRows,
			CategoryCutoff: cfg.Engine.CategoryCutoff,
		})
	}

	var ledger ports.UploadLedger
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		if err := postgres.Migrate(db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		ledger = postgres.NewUploadRepository(db)
		log.Println("Upload ledger enabled")
	}

	resultStore := store.New()
	dashboard := ui.NewDashboard(resultStore, ui.DefaultViewCaps())

	server, err := ui.NewServer(ui.ServerConfig{
		Dashboard:      dashboard,
		Store:          resultStore,
		Analyzer:       analyzer,
		Ledger:         ledger,
		MaxUploadBytes: cfg.Engine.MaxUploadBytes,
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.ListenAndServe(ctx, ":"+cfg.Server.Port); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
