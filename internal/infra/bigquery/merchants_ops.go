package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

const merchantsTable = "merchants"

// ListMerchantsByNetwork retrieves all merchants seen on the given network.
func ListMerchantsByNetwork(ctx context.Context, network string) ([]*MerchantRow, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("ListMerchantsByNetwork: creating client: %w", err)
	}
	defer client.Close()

	return ListMerchantsByNetworkWithClient(ctx, client, network)
}

// ListMerchantsByNetworkWithClient retrieves all merchants seen on the given
// network using the provided BigQuery client.
func ListMerchantsByNetworkWithClient(ctx context.Context, client *bigquery.Client, network string) ([]*MerchantRow, error) {
	query := fmt.Sprintf(`
		SELECT
			merchant_id,
			network,
			name,
			url,
			launch_date,
			created_ts
		FROM `+"`%s.%s.%s`"+`
		WHERE network = @network
		ORDER BY name
	`, projectID, datasetID, merchantsTable)

	q := client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "network", Value: network},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListMerchantsByNetworkWithClient: reading query: %w", err)
	}

	var merchants []*MerchantRow
	for {
		var row MerchantRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListMerchantsByNetworkWithClient: iterating: %w", err)
		}
		merchants = append(merchants, &row)
	}

	return merchants, nil
}

// FindMerchant finds a merchant by (network, merchant_id).
// Returns nil if no matching merchant is found.
func FindMerchant(ctx context.Context, network, merchantID string) (*MerchantRow, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("FindMerchant: creating client: %w", err)
	}
	defer client.Close()

	return FindMerchantWithClient(ctx, client, network, merchantID)
}

// FindMerchantWithClient finds a merchant using the provided BigQuery client.
func FindMerchantWithClient(ctx context.Context, client *bigquery.Client, network, merchantID string) (*MerchantRow, error) {
	query := fmt.Sprintf(`
		SELECT
			merchant_id,
			network,
			name,
			url,
			launch_date,
			created_ts
		FROM `+"`%s.%s.%s`"+`
		WHERE network = @network
		  AND merchant_id = @merchant_id
		LIMIT 1
	`, projectID, datasetID, merchantsTable)

	q := client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "network", Value: network},
		{Name: "merchant_id", Value: merchantID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("FindMerchantWithClient: reading query: %w", err)
	}

	var row MerchantRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindMerchantWithClient: iterating: %w", err)
	}

	return &row, nil
}

// UpsertMerchant finds an existing merchant by (network, merchant_id) or
// creates a new one. The catalog row is immutable once written; networks
// rename programs so rarely that a stale name is acceptable.
func UpsertMerchant(ctx context.Context, row *MerchantRow) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("UpsertMerchant: creating client: %w", err)
	}
	defer client.Close()

	return UpsertMerchantWithClient(ctx, client, row)
}

// UpsertMerchantWithClient finds or creates a merchant using the provided BigQuery client.
func UpsertMerchantWithClient(ctx context.Context, client *bigquery.Client, row *MerchantRow) error {
	if row.MerchantID == "" {
		return fmt.Errorf("UpsertMerchantWithClient: merchant_id cannot be empty")
	}
	if row.Network == "" {
		return fmt.Errorf("UpsertMerchantWithClient: network cannot be empty")
	}

	existing, err := FindMerchantWithClient(ctx, client, row.Network, row.MerchantID)
	if err != nil {
		return fmt.Errorf("UpsertMerchantWithClient: finding existing merchant: %w", err)
	}
	if existing != nil {
		return nil
	}

	q := client.Query(`
		INSERT INTO ` + "`" + projectID + "." + datasetID + "." + merchantsTable + "`" + ` (
			merchant_id, network, name,
			url, launch_date, created_ts
		)
		VALUES (
			@merchant_id, @network, @name,
			@url, @launch_date, @created_ts
		)
	`)

	q.Parameters = []bigquery.QueryParameter{
		{Name: "merchant_id", Value: row.MerchantID},
		{Name: "network", Value: row.Network},
		{Name: "name", Value: row.Name},
		{Name: "url", Value: row.URL},
		{Name: "launch_date", Value: row.LaunchDate},
		{Name: "created_ts", Value: time.Now()},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("UpsertMerchantWithClient: running insert query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("UpsertMerchantWithClient: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("UpsertMerchantWithClient: job error: %w", err)
	}

	return nil
}
