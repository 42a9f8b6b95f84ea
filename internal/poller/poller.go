// Package poller orchestrates one transaction pull: resolve the network
// adapter, fetch the report, and land the rows in the warehouse.
package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/affiliate-tracker/internal/affiliate"
	"github.com/dvloznov/affiliate-tracker/internal/infra/bigquery"
	"github.com/dvloznov/affiliate-tracker/internal/logger"
)

// Options configures a single poll run.
type Options struct {
	// Network is the registry name, used for tagging warehouse rows.
	Network string

	// Credentials are handed to the adapter before the pull.
	Credentials affiliate.Credentials

	// Query bounds the report window and merchant filter.
	Query affiliate.Query

	// SyncMerchants also refreshes the merchant catalog for networks
	// that support discovery.
	SyncMerchants bool
}

// Result summarizes a completed poll run.
type Result struct {
	PollRunID    string
	Transactions int
	SkippedPages int
	Merchants    int
}

// Run executes one poll against the given adapter and lands the results
// in the warehouse.
func Run(ctx context.Context, adapter affiliate.Network, repo bigquery.WarehouseRepository, opts Options) (*Result, error) {
	log := logger.WithNetwork(logger.FromContext(ctx), opts.Network)
	ctx = logger.WithContext(ctx, log)

	// 1. Authenticate and sanity-check the credentials.
	adapter.Login(opts.Credentials)
	if !adapter.CheckConnection(ctx) {
		return nil, fmt.Errorf("Run: credentials incomplete for network %s", opts.Network)
	}

	// 2. Record the poll run (status=RUNNING).
	start, end := opts.Query.Window(time.Now())
	pollRunID, err := repo.StartPollRun(ctx, opts.Network, start, end)
	if err != nil {
		return nil, fmt.Errorf("Run: %w", err)
	}

	log.Info().
		Str("poll_run_id", pollRunID).
		Time("window_start", start).
		Time("window_end", end).
		Msg("Starting poll run")

	// 3. Pull the transaction report.
	report, err := adapter.TransactionList(ctx, opts.Query)
	if err != nil {
		repo.MarkPollRunFailed(ctx, pollRunID, err)
		return nil, fmt.Errorf("Run: transaction list: %w", err)
	}

	if report.Partial() {
		log.Warn().
			Int("skipped_pages", len(report.Skipped)).
			Msg("Report is missing pages")
	}

	// 4. Land the rows in the warehouse.
	rows := make([]*bigquery.TransactionRow, 0, len(report.Transactions))
	for _, tx := range report.Transactions {
		rows = append(rows, bigquery.NewTransactionRow(opts.Network, pollRunID, tx))
	}
	if err := repo.InsertTransactions(ctx, rows); err != nil {
		repo.MarkPollRunFailed(ctx, pollRunID, err)
		return nil, fmt.Errorf("Run: %w", err)
	}

	res := &Result{
		PollRunID:    pollRunID,
		Transactions: len(rows),
		SkippedPages: len(report.Skipped),
	}

	// 5. Optionally refresh the merchant catalog.
	if opts.SyncMerchants {
		count, err := syncMerchants(ctx, adapter, repo, opts.Network)
		if err != nil {
			// Catalog refresh is best effort; the report itself landed.
			log.Warn().Err(err).Msg("Merchant catalog refresh failed")
		}
		res.Merchants = count
	}

	// 6. Mark the run as SUCCESS with its counters.
	if err := repo.MarkPollRunSucceeded(ctx, pollRunID, res.Transactions, res.SkippedPages); err != nil {
		return nil, fmt.Errorf("Run: %w", err)
	}

	log.Info().
		Str("poll_run_id", pollRunID).
		Int("transactions", res.Transactions).
		Int("skipped_pages", res.SkippedPages).
		Msg("Poll run completed")

	return res, nil
}

func syncMerchants(ctx context.Context, adapter affiliate.Network, repo bigquery.WarehouseRepository, network string) (int, error) {
	merchants, err := adapter.MerchantList(ctx)
	if err != nil {
		return 0, fmt.Errorf("syncMerchants: %w", err)
	}

	for _, m := range merchants {
		if err := repo.UpsertMerchant(ctx, bigquery.NewMerchantRow(network, m)); err != nil {
			return 0, fmt.Errorf("syncMerchants: %w", err)
		}
	}

	return len(merchants), nil
}
