package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
)

// WarehouseRepository provides an interface for warehouse operations so
// callers can be tested against a fake.
type WarehouseRepository interface {
	// InsertTransactions inserts a batch of TransactionRow.
	InsertTransactions(ctx context.Context, rows []*TransactionRow) error

	// QueryTransactionsByDateRange queries transactions within the specified
	// date range. An empty network matches all networks.
	QueryTransactionsByDateRange(ctx context.Context, network string, startDate, endDate time.Time) ([]*TransactionRow, error)

	// UpsertMerchant finds or creates a merchant catalog row.
	UpsertMerchant(ctx context.Context, row *MerchantRow) error

	// ListMerchantsByNetwork retrieves all merchants seen on a network.
	ListMerchantsByNetwork(ctx context.Context, network string) ([]*MerchantRow, error)

	// StartPollRun inserts a new poll run with status=RUNNING and returns the poll_run_id.
	StartPollRun(ctx context.Context, network string, windowStart, windowEnd time.Time) (string, error)

	// MarkPollRunFailed sets status=FAILED, finished_ts and error_message for a poll run.
	MarkPollRunFailed(ctx context.Context, pollRunID string, pollErr error)

	// MarkPollRunSucceeded sets status=SUCCESS, finished_ts and the run counters.
	MarkPollRunSucceeded(ctx context.Context, pollRunID string, transactionCount, skippedPages int) error
}

// BigQueryWarehouseRepository is the concrete implementation of
// WarehouseRepository. It holds a shared BigQuery client to avoid creating
// a new connection for each operation.
type BigQueryWarehouseRepository struct {
	client *bigquery.Client
}

// NewBigQueryWarehouseRepository creates a new instance of BigQueryWarehouseRepository
// with a shared BigQuery client.
func NewBigQueryWarehouseRepository(ctx context.Context) (*BigQueryWarehouseRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryWarehouseRepository: creating client: %w", err)
	}
	return &BigQueryWarehouseRepository{
		client: client,
	}, nil
}

// Close closes the BigQuery client connection. This should be called when
// the repository is no longer needed to release resources.
func (r *BigQueryWarehouseRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// InsertTransactions delegates to the existing InsertTransactions function with the shared client.
func (r *BigQueryWarehouseRepository) InsertTransactions(ctx context.Context, rows []*TransactionRow) error {
	return InsertTransactionsWithClient(ctx, r.client, rows)
}

// QueryTransactionsByDateRange delegates to the existing QueryTransactionsByDateRange function with the shared client.
func (r *BigQueryWarehouseRepository) QueryTransactionsByDateRange(ctx context.Context, network string, startDate, endDate time.Time) ([]*TransactionRow, error) {
	return QueryTransactionsByDateRangeWithClient(ctx, r.client, network, startDate, endDate)
}

// UpsertMerchant delegates to the existing UpsertMerchant function with the shared client.
func (r *BigQueryWarehouseRepository) UpsertMerchant(ctx context.Context, row *MerchantRow) error {
	return UpsertMerchantWithClient(ctx, r.client, row)
}

// ListMerchantsByNetwork delegates to the existing ListMerchantsByNetwork function with the shared client.
func (r *BigQueryWarehouseRepository) ListMerchantsByNetwork(ctx context.Context, network string) ([]*MerchantRow, error) {
	return ListMerchantsByNetworkWithClient(ctx, r.client, network)
}

// StartPollRun delegates to the existing StartPollRun function with the shared client.
func (r *BigQueryWarehouseRepository) StartPollRun(ctx context.Context, network string, windowStart, windowEnd time.Time) (string, error) {
	return StartPollRunWithClient(ctx, r.client, network, windowStart, windowEnd)
}

// MarkPollRunFailed delegates to the existing MarkPollRunFailed function with the shared client.
func (r *BigQueryWarehouseRepository) MarkPollRunFailed(ctx context.Context, pollRunID string, pollErr error) {
	MarkPollRunFailedWithClient(ctx, r.client, pollRunID, pollErr)
}

// MarkPollRunSucceeded delegates to the existing MarkPollRunSucceeded function with the shared client.
func (r *BigQueryWarehouseRepository) MarkPollRunSucceeded(ctx context.Context, pollRunID string, transactionCount, skippedPages int) error {
	return MarkPollRunSucceededWithClient(ctx, r.client, pollRunID, transactionCount, skippedPages)
}

// Ensure BigQueryWarehouseRepository implements WarehouseRepository.
var _ WarehouseRepository = (*BigQueryWarehouseRepository)(nil)
