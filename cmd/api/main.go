package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/affiliate-tracker/internal/affiliate"
	"github.com/dvloznov/affiliate-tracker/internal/api/handlers"
	"github.com/dvloznov/affiliate-tracker/internal/api/middleware"
	"github.com/dvloznov/affiliate-tracker/internal/config"
	infraBQ "github.com/dvloznov/affiliate-tracker/internal/infra/bigquery"
	"github.com/dvloznov/affiliate-tracker/internal/jobs"
	"github.com/dvloznov/affiliate-tracker/internal/jobs/inmemory"
	"github.com/dvloznov/affiliate-tracker/internal/logger"
	"github.com/dvloznov/affiliate-tracker/internal/networks"
	"github.com/dvloznov/affiliate-tracker/internal/poller"
)

func main() {
	// Parse command-line flags
	var (
		port       = flag.String("port", "8080", "HTTP server port")
		configPath = flag.String("config", os.Getenv("AFFILIATE_CONFIG"), "Path to the JSON config file (or set AFFILIATE_CONFIG env)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	if *configPath == "" {
		log.Fatal().Msg("No config file specified, use -config or AFFILIATE_CONFIG")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load config")
	}

	// Initialize repositories
	ctx := context.Background()

	repo, err := infraBQ.NewBigQueryWarehouseRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create warehouse repository")
	}
	defer repo.Close()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	// Start worker in background to process jobs
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	// Create job handler for processing poll jobs
	jobHandler := func(ctx context.Context, job jobs.Job) error {
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
			return fmt.Errorf("jobHandler: %w", err)
		}

		adapter, err := networks.New(pollJob.Network)
		if err != nil {
			return fmt.Errorf("jobHandler: %w", err)
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

	// Start job consumer in background
	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	// Initialize handlers
	networksHandler := handlers.NewNetworksHandler(log)
	pollsHandler := handlers.NewPollsHandler(jobQueue, log)
	transactionsHandler := handlers.NewTransactionsHandler(repo, log)
	merchantsHandler := handlers.NewMerchantsHandler(repo, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	// Create router
	mux := http.NewServeMux()

	// Networks endpoints
	mux.HandleFunc("/api/networks", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			networksHandler.ListNetworks(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Polls endpoints
	mux.HandleFunc("/api/polls", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			pollsHandler.EnqueuePoll(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Transactions endpoints
	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			transactionsHandler.ListTransactions(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Merchants endpoints
	mux.HandleFunc("/api/merchants", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			merchantsHandler.ListMerchants(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Jobs endpoints
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			// Extract job ID from path
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(mux),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Cancel worker context
	cancelWorker()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	// Close job queue
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
