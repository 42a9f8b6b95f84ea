package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// DeletePollRun deletes a poll run and every transaction it landed. Used to
// purge a bad run before replaying it from the raw page archive.
func DeletePollRun(ctx context.Context, pollRunID string) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("DeletePollRun: bigquery client: %w", err)
	}
	defer client.Close()

	return DeletePollRunWithClient(ctx, client, pollRunID)
}

// DeletePollRunWithClient deletes a poll run using an existing BigQuery client.
func DeletePollRunWithClient(ctx context.Context, client *bigquery.Client, pollRunID string) error {
	// Delete transactions first so a failure never leaves orphaned rows
	// attached to a missing run
	if err := deleteRunTransactions(ctx, client, pollRunID); err != nil {
		return fmt.Errorf("DeletePollRun: deleting transactions: %w", err)
	}

	if err := deletePollRunRecord(ctx, client, pollRunID); err != nil {
		return fmt.Errorf("DeletePollRun: deleting poll run: %w", err)
	}

	return nil
}

func deleteRunTransactions(ctx context.Context, client *bigquery.Client, pollRunID string) error {
	q := client.Query(`
		DELETE FROM ` + "`" + projectID + "." + datasetID + "." + transactionsTable + "`" + `
		WHERE poll_run_id = @poll_run_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "poll_run_id", Value: pollRunID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}

func deletePollRunRecord(ctx context.Context, client *bigquery.Client, pollRunID string) error {
	q := client.Query(`
		DELETE FROM ` + "`" + projectID + "." + datasetID + "." + pollRunsTable + "`" + `
		WHERE poll_run_id = @poll_run_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "poll_run_id", Value: pollRunID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}
