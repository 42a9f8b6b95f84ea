package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/dvloznov/affiliate-tracker/internal/logger"
)

const pollRunsTable = "poll_runs"

// StartPollRun inserts a new row into affiliate.poll_runs with status=RUNNING
// and returns the generated poll_run_id.
func StartPollRun(ctx context.Context, network string, windowStart, windowEnd time.Time) (string, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("StartPollRun: bigquery client: %w", err)
	}
	defer client.Close()

	return StartPollRunWithClient(ctx, client, network, windowStart, windowEnd)
}

// StartPollRunWithClient inserts a new row into affiliate.poll_runs with status=RUNNING
// and returns the generated poll_run_id using the provided BigQuery client.
func StartPollRunWithClient(ctx context.Context, client *bigquery.Client, network string, windowStart, windowEnd time.Time) (string, error) {
	pollRunID := uuid.NewString()
	started := time.Now()

	q := client.Query(fmt.Sprintf(`
		INSERT %s.%s (
			poll_run_id,
			network,
			window_start,
			window_end,
			started_ts,
			status
		)
		VALUES (
			@poll_run_id,
			@network,
			@window_start,
			@window_end,
			@started_ts,
			@status
		)
	`, datasetID, pollRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "poll_run_id", Value: pollRunID},
		{Name: "network", Value: network},
		{Name: "window_start", Value: windowStart},
		{Name: "window_end", Value: windowEnd},
		{Name: "started_ts", Value: started},
		{Name: "status", Value: "RUNNING"},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return "", fmt.Errorf("StartPollRun: running insert query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return "", fmt.Errorf("StartPollRun: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return "", fmt.Errorf("StartPollRun: job error: %w", err)
	}

	return pollRunID, nil
}

// MarkPollRunFailed sets status=FAILED, finished_ts and error_message.
func MarkPollRunFailed(ctx context.Context, pollRunID string, pollErr error) {
	log := logger.FromContext(ctx)

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		log.Error().
			Err(err).
			Str("poll_run_id", pollRunID).
			Msg("MarkPollRunFailed: bigquery client error")
		return
	}
	defer client.Close()

	MarkPollRunFailedWithClient(ctx, client, pollRunID, pollErr)
}

// MarkPollRunFailedWithClient sets status=FAILED, finished_ts and error_message
// using the provided BigQuery client.
func MarkPollRunFailedWithClient(ctx context.Context, client *bigquery.Client, pollRunID string, pollErr error) {
	log := logger.FromContext(ctx)

	errMsg := ""
	if pollErr != nil {
		errMsg = pollErr.Error()
		const maxLen = 2000
		if len(errMsg) > maxLen {
			errMsg = errMsg[:maxLen]
		}
	}

	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    error_message = @error_message
		WHERE poll_run_id = @poll_run_id
	`, datasetID, pollRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: "FAILED"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "poll_run_id", Value: pollRunID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		log.Error().
			Err(err).
			Str("poll_run_id", pollRunID).
			Msg("MarkPollRunFailed: running update query")
		return
	}

	status, err := job.Wait(ctx)
	if err != nil {
		log.Error().
			Err(err).
			Str("poll_run_id", pollRunID).
			Msg("MarkPollRunFailed: waiting for job")
		return
	}
	if err := status.Err(); err != nil {
		log.Error().
			Err(err).
			Str("poll_run_id", pollRunID).
			Msg("MarkPollRunFailed: job completed with error")
	}
}

// MarkPollRunSucceeded sets status=SUCCESS, finished_ts and the run counters,
// and clears error_message.
func MarkPollRunSucceeded(ctx context.Context, pollRunID string, transactionCount, skippedPages int) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("MarkPollRunSucceeded: bigquery client: %w", err)
	}
	defer client.Close()

	return MarkPollRunSucceededWithClient(ctx, client, pollRunID, transactionCount, skippedPages)
}

// MarkPollRunSucceededWithClient sets status=SUCCESS, finished_ts and the run
// counters using the provided BigQuery client.
func MarkPollRunSucceededWithClient(ctx context.Context, client *bigquery.Client, pollRunID string, transactionCount, skippedPages int) error {
	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    finished_ts = @finished_ts,
		    transaction_count = @transaction_count,
		    skipped_pages = @skipped_pages,
		    error_message = ""
		WHERE poll_run_id = @poll_run_id
	`, datasetID, pollRunsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: "SUCCESS"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "transaction_count", Value: transactionCount},
		{Name: "skipped_pages", Value: skippedPages},
		{Name: "poll_run_id", Value: pollRunID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("MarkPollRunSucceeded: running update query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("MarkPollRunSucceeded: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("MarkPollRunSucceeded: job error: %w", err)
	}

	return nil
}
