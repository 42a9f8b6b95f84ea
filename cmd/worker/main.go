package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/affiliate-tracker/internal/affiliate"
	"github.com/dvloznov/affiliate-tracker/internal/config"
	"github.com/dvloznov/affiliate-tracker/internal/infra/bigquery"
	"github.com/dvloznov/affiliate-tracker/internal/jobs"
	"github.com/dvloznov/affiliate-tracker/internal/jobs/inmemory"
	"github.com/dvloznov/affiliate-tracker/internal/logger"
	"github.com/dvloznov/affiliate-tracker/internal/networks"
	"github.com/dvloznov/affiliate-tracker/internal/poller"
)

func main() {
	// Initialize logger
	log := logger.New()

	// Parse CLI flags
	configPath := flag.String("config", os.Getenv("AFFILIATE_CONFIG"), "Path to the JSON config file (or set AFFILIATE_CONFIG env)")
	networkList := flag.String("networks", "", "Comma-separated networks to poll (defaults to every configured network)")
	interval := flag.Duration("interval", 6*time.Hour, "Delay between poll rounds")
	flag.Parse()

	if *configPath == "" {
		log.Fatal().Msg("Error: --config is required (or set AFFILIATE_CONFIG)")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load config")
	}

	// Resolve the poll set up front so a typo fails fast
	var pollNetworks []string
	if *networkList != "" {
		pollNetworks = strings.Split(*networkList, ",")
	} else {
		for name := range cfg.Networks {
			pollNetworks = append(pollNetworks, name)
		}
	}
	for _, name := range pollNetworks {
		if _, err := cfg.CredentialsFor(name); err != nil {
			log.Fatal().Err(err).Str("network", name).Msg("Network not configured")
		}
		if _, err := networks.New(name); err != nil {
			log.Fatal().Err(err).Str("network", name).Msg("Unknown network")
		}
	}
	if len(pollNetworks) == 0 {
		log.Fatal().Msg("No networks to poll")
	}

	// Initialize BigQuery repository shared by every poll run
	startupCtx, startupCancel := context.WithTimeout(context.Background(), time.Minute)
	repo, err := bigquery.NewBigQueryWarehouseRepository(startupCtx)
	startupCancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize BigQuery repository")
	}
	defer repo.Close()

	// Initialize job store and queue
	// In production, this would be replaced with Cloud Tasks or Pub/Sub
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	log.Info().
		Strs("networks", pollNetworks).
		Dur("interval", *interval).
		Msg("Starting worker service")

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	// Create job handler that runs poll jobs
	handler := func(ctx context.Context, job jobs.Job) error {
		pollJob, ok := job.(*jobs.PollNetworkJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", pollJob.JobID).
			Str("network", pollJob.Network).
			Msg("Processing poll job")

		creds, err := cfg.CredentialsFor(pollJob.Network)
		if err != nil {
			return fmt.Errorf("handler: %w", err)
		}

		adapter, err := networks.New(pollJob.Network)
		if err != nil {
			return fmt.Errorf("handler: %w", err)
		}

		result, err := poller.Run(ctx, adapter, repo, poller.Options{
			Network:     pollJob.Network,
			Credentials: creds,
			Query:       affiliate.Query{Start: pollJob.Start, End: pollJob.End},
		})
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", pollJob.JobID).
				Str("network", pollJob.Network).
				Msg("Poll run failed")
			return err
		}

		log.Info().
			Str("job_id", pollJob.JobID).
			Str("network", pollJob.Network).
			Str("poll_run_id", result.PollRunID).
			Int("transactions", result.Transactions).
			Int("skipped_pages", result.SkippedPages).
			Msg("Poll run completed successfully")

		return nil
	}

	// Start consuming jobs
	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	// Publish a poll round for every network, then repeat on the ticker
	publishRound := func() {
		for _, name := range pollNetworks {
			job := &jobs.PollNetworkJob{Network: name}
			if err := jobQueue.PublishPoll(ctx, job); err != nil {
				log.Error().Err(err).Str("network", name).Msg("Failed to enqueue poll job")
				continue
			}
			log.Info().Str("job_id", job.JobID).Str("network", name).Msg("Poll job enqueued")
		}
	}

	go func() {
		publishRound()
		ticker := time.NewTicker(*interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				publishRound()
			}
		}
	}()

	log.Info().Msg("Worker service started, polling on schedule...")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	// Cancel context to stop workers
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	// Close the queue
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Worker service exited")
}
