package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
)

// PollRunRow represents one transaction-report pull in BigQuery.
type PollRunRow struct {
	PollRunID string `bigquery:"poll_run_id"`
	Network   string `bigquery:"network"`

	WindowStart time.Time `bigquery:"window_start"`
	WindowEnd   time.Time `bigquery:"window_end"`

	StartedTS  time.Time              `bigquery:"started_ts"`
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"`

	Status       string `bigquery:"status"`
	ErrorMessage string `bigquery:"error_message"`

	TransactionCount bigquery.NullInt64 `bigquery:"transaction_count"`
	SkippedPages     bigquery.NullInt64 `bigquery:"skipped_pages"`
}
