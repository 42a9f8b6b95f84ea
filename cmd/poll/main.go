package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/affiliate-tracker/internal/affiliate"
	"github.com/dvloznov/affiliate-tracker/internal/config"
	"github.com/dvloznov/affiliate-tracker/internal/infra/bigquery"
	"github.com/dvloznov/affiliate-tracker/internal/logger"
	"github.com/dvloznov/affiliate-tracker/internal/networks"
	"github.com/dvloznov/affiliate-tracker/internal/poller"
	"github.com/dvloznov/affiliate-tracker/internal/rawarchive"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	configPath := flag.String("config", os.Getenv("AFFILIATE_CONFIG"), "Path to the JSON config file (or set AFFILIATE_CONFIG env)")
	network := flag.String("network", "", "Network to poll (required, see -list)")
	list := flag.Bool("list", false, "List registered networks and exit")
	startDateStr := flag.String("start-date", "", "Start date in YYYY-MM-DD format (defaults to one year back)")
	endDateStr := flag.String("end-date", "", "End date in YYYY-MM-DD format (defaults to now)")
	merchantIDs := flag.String("merchants", "", "Comma-separated merchant IDs to restrict the pull")
	syncMerchants := flag.Bool("sync-merchants", false, "Also refresh the merchant catalog")
	deleteRun := flag.String("delete-run", "", "Purge a poll run and its transactions instead of polling")
	flag.Parse()

	if *deleteRun != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		ctx = logger.WithContext(ctx, log)

		if err := bigquery.DeletePollRun(ctx, *deleteRun); err != nil {
			log.Fatal().Err(err).Str("poll_run_id", *deleteRun).Msg("Purge failed")
		}
		fmt.Printf("Poll run %s purged.\n", *deleteRun)
		return
	}

	if *list {
		for _, name := range networks.Names() {
			fmt.Println(name)
		}
		return
	}

	// Validate required flags
	if *configPath == "" {
		log.Fatal().Msg("Error: --config is required (or set AFFILIATE_CONFIG)")
	}
	if *network == "" {
		log.Fatal().Msg("Error: --network is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load config")
	}

	creds, err := cfg.CredentialsFor(*network)
	if err != nil {
		log.Fatal().Err(err).Str("network", *network).Msg("No credentials for network")
	}

	// Parse optional window bounds
	var query affiliate.Query
	if *startDateStr != "" {
		query.Start, err = time.Parse("2006-01-02", *startDateStr)
		if err != nil {
			log.Fatal().Err(err).Str("start_date", *startDateStr).Msg("Error: invalid start-date format, expected YYYY-MM-DD")
		}
	}
	if *endDateStr != "" {
		query.End, err = time.Parse("2006-01-02", *endDateStr)
		if err != nil {
			log.Fatal().Err(err).Str("end_date", *endDateStr).Msg("Error: invalid end-date format, expected YYYY-MM-DD")
		}
	}
	if !query.Start.IsZero() && !query.End.IsZero() && query.End.Before(query.Start) {
		log.Fatal().
			Time("start_date", query.Start).
			Time("end_date", query.End).
			Msg("Error: end-date must be after start-date")
	}
	if *merchantIDs != "" {
		query.MerchantIDs = strings.Split(*merchantIDs, ",")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("network", *network).
		Bool("sync_merchants", *syncMerchants).
		Msg("Starting poll")

	// When an archive bucket is configured, wrap the adapter's HTTP client
	// so every raw page lands in GCS before normalization touches it.
	var httpClient *http.Client
	if cfg.ArchiveBucket != "" {
		archive := rawarchive.NewGCSArchiveService(cfg.ArchiveBucket)
		transport := rawarchive.NewTransport(nil, archive, *network, uuid.NewString())
		httpClient = &http.Client{Transport: transport, Timeout: 60 * time.Second}
	}

	adapter, err := networks.NewWithClient(*network, httpClient)
	if err != nil {
		log.Fatal().Err(err).Str("network", *network).Msg("Unknown network")
	}

	// Initialize BigQuery repository
	repo, err := bigquery.NewBigQueryWarehouseRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize BigQuery repository")
	}
	defer repo.Close()

	result, err := poller.Run(ctx, adapter, repo, poller.Options{
		Network:       *network,
		Credentials:   creds,
		Query:         query,
		SyncMerchants: *syncMerchants,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Poll failed")
	}

	fmt.Printf("Poll completed: %d transactions landed, %d pages skipped (run %s).\n",
		result.Transactions, result.SkippedPages, result.PollRunID)
}
