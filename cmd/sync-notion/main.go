package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/affiliate-tracker/internal/config"
	"github.com/dvloznov/affiliate-tracker/internal/infra/bigquery"
	"github.com/dvloznov/affiliate-tracker/internal/logger"
	"github.com/dvloznov/affiliate-tracker/internal/notionsync"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	configPath := flag.String("config", os.Getenv("AFFILIATE_CONFIG"), "Path to the JSON config file (or set AFFILIATE_CONFIG env)")
	network := flag.String("network", "", "Restrict the sync to one network (defaults to all)")
	startDateStr := flag.String("start-date", "", "Start date in YYYY-MM-DD format (required)")
	endDateStr := flag.String("end-date", "", "End date in YYYY-MM-DD format (required)")
	skipMerchants := flag.Bool("skip-merchants", false, "Sync transactions only, leave the merchant database untouched")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	// Validate required flags
	if *configPath == "" {
		log.Fatal().Msg("Error: --config is required (or set AFFILIATE_CONFIG)")
	}
	if *startDateStr == "" {
		log.Fatal().Msg("Error: --start-date is required")
	}
	if *endDateStr == "" {
		log.Fatal().Msg("Error: --end-date is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load config")
	}
	if cfg.Notion.Token == "" {
		log.Fatal().Msg("Error: notion.token missing from config")
	}
	if cfg.Notion.TransactionsDBID == "" {
		log.Fatal().Msg("Error: notion.transactions_db_id missing from config")
	}

	// Parse dates
	startDate, err := time.Parse("2006-01-02", *startDateStr)
	if err != nil {
		log.Fatal().Err(err).Str("start_date", *startDateStr).Msg("Error: invalid start-date format, expected YYYY-MM-DD")
	}

	endDate, err := time.Parse("2006-01-02", *endDateStr)
	if err != nil {
		log.Fatal().Err(err).Str("end_date", *endDateStr).Msg("Error: invalid end-date format, expected YYYY-MM-DD")
	}

	// Validate date range
	if endDate.Before(startDate) {
		log.Fatal().
			Time("start_date", startDate).
			Time("end_date", endDate).
			Msg("Error: end-date must be after start-date")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("start_date", *startDateStr).
		Str("end_date", *endDateStr).
		Str("network", *network).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	// Initialize BigQuery repository
	repo, err := bigquery.NewBigQueryWarehouseRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize BigQuery repository")
	}
	defer repo.Close()

	// Initialize Notion client
	notionClient := notionsync.NewNotionClient(cfg.Notion.Token)

	// Sync transactions
	if err := notionsync.SyncTransactions(ctx, repo, notionClient, cfg.Notion.TransactionsDBID, *network, startDate, endDate, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	// Sync the merchant catalog unless told otherwise
	if !*skipMerchants && cfg.Notion.MerchantsDBID != "" {
		if err := notionsync.SyncMerchants(ctx, repo, notionClient, cfg.Notion.MerchantsDBID, *network, *dryRun); err != nil {
			log.Fatal().Err(err).Msg("Merchant sync failed")
		}
	}

	fmt.Println("Sync completed successfully.")
}
