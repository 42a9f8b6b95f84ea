package notionsync

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/affiliate-tracker/internal/infra/bigquery"
	"github.com/dvloznov/affiliate-tracker/internal/logger"
)

const (
	// BatchSize defines the number of transactions to process in a single batch
	BatchSize = 100
)

// SyncTransactions syncs warehouse transactions to Notion within the specified
// date range. An empty network syncs all networks. The Transaction ID title
// property is used to track rows across syncs for idempotency.
// This function:
// 1. Queries all existing Notion transactions
// 2. Deletes stale transactions (not in the warehouse active set)
// 3. Creates missing transactions from the warehouse
func SyncTransactions(ctx context.Context, repo bigquery.WarehouseRepository, notionClient NotionService, notionDBID, network string, startDate, endDate time.Time, dryRun bool) error {
	log := logger.FromContext(ctx)

	log.Info().
		Str("network", network).
		Time("start_date", startDate).
		Time("end_date", endDate).
		Bool("dry_run", dryRun).
		Msg("Starting transaction sync to Notion")

	// Query transactions from the warehouse (already filtered to successful poll runs)
	transactions, err := repo.QueryTransactionsByDateRange(ctx, network, startDate, endDate)
	if err != nil {
		return fmt.Errorf("failed to query transactions: %w", err)
	}

	log.Info().Int("transaction_count", len(transactions)).Msg("Retrieved transactions from warehouse")

	// Build set of valid transaction IDs from the warehouse
	validTransactionIDs := make(map[string]bool)
	for _, tx := range transactions {
		validTransactionIDs[syncKey(tx.Network, tx.UniqueID)] = true
	}

	// Query all existing transactions from Notion
	log.Info().Msg("Querying existing transactions from Notion")
	notionPages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return fmt.Errorf("failed to query Notion pages: %w", err)
	}

	log.Info().Int("notion_page_count", len(notionPages)).Msg("Retrieved existing Notion pages")

	// Build map of existing transaction keys in Notion (for deduplication)
	existingTransactionIDs := make(map[string]bool)
	for _, page := range notionPages {
		key := extractSyncKey(page)
		if key != "" {
			existingTransactionIDs[key] = true
		}
	}

	// Delete stale transactions from Notion (those not in the valid set)
	var deleted int
	for _, page := range notionPages {
		key := extractSyncKey(page)

		// Pages from other networks stay untouched on a scoped sync
		if network != "" && extractNetwork(page) != network {
			continue
		}

		// Delete pages without Transaction ID (from old sync) or not in valid set
		if key == "" || !validTransactionIDs[key] {
			if dryRun {
				log.Info().
					Str("sync_key", key).
					Str("page_id", string(page.ID)).
					Msg("[DRY RUN] Would delete stale Notion page")
				deleted++
			} else {
				if err := notionClient.DeletePage(ctx, string(page.ID)); err != nil {
					log.Warn().
						Err(err).
						Str("sync_key", key).
						Str("page_id", string(page.ID)).
						Msg("Failed to delete stale Notion page")
					continue
				}
				log.Info().
					Str("sync_key", key).
					Str("page_id", string(page.ID)).
					Msg("Deleted stale Notion page")
				deleted++
			}
		}
	}

	if deleted > 0 {
		log.Info().Int("deleted", deleted).Msg("Deleted stale transactions from Notion")
	}

	// Process transactions in batches
	var created, skipped int
	for i := 0; i < len(transactions); i += BatchSize {
		end := i + BatchSize
		if end > len(transactions) {
			end = len(transactions)
		}

		batch := transactions[i:end]
		log.Info().
			Int("batch_start", i).
			Int("batch_end", end).
			Int("batch_size", len(batch)).
			Msg("Processing batch")

		for _, tx := range batch {
			// Skip if already exists in Notion
			if existingTransactionIDs[syncKey(tx.Network, tx.UniqueID)] {
				skipped++
				continue
			}

			if dryRun {
				log.Info().
					Str("unique_id", tx.UniqueID).
					Str("network", tx.Network).
					Msg("[DRY RUN] Would create new Notion page")
				created++
				continue
			}

			// Convert transaction to Notion properties
			props := TransactionToNotionProperties(tx)

			page, err := notionClient.CreatePage(ctx, notionDBID, props)
			if err != nil {
				log.Warn().
					Err(err).
					Str("unique_id", tx.UniqueID).
					Str("network", tx.Network).
					Msg("Failed to create Notion page")
				// Continue processing other transactions
				continue
			}
			log.Info().
				Str("unique_id", tx.UniqueID).
				Str("network", tx.Network).
				Str("page_id", string(page.ID)).
				Msg("Created Notion page")
			created++
		}
	}

	log.Info().
		Int("deleted", deleted).
		Int("created", created).
		Int("skipped", skipped).
		Int("total", len(transactions)).
		Msg("Transaction sync completed")

	return nil
}

// SyncMerchants syncs the merchant catalog for one network to Notion.
// Deletes stale merchants and creates missing ones.
func SyncMerchants(ctx context.Context, repo bigquery.WarehouseRepository, notionClient NotionService, notionDBID, network string, dryRun bool) error {
	log := logger.FromContext(ctx)

	log.Info().
		Str("network", network).
		Bool("dry_run", dryRun).
		Msg("Starting merchant sync to Notion")

	// Query the catalog from the warehouse
	merchants, err := repo.ListMerchantsByNetwork(ctx, network)
	if err != nil {
		return fmt.Errorf("failed to query merchants: %w", err)
	}

	log.Info().Int("merchant_count", len(merchants)).Msg("Retrieved merchants from warehouse")

	// Build set of valid merchant keys from the warehouse
	validMerchantIDs := make(map[string]bool)
	for _, m := range merchants {
		validMerchantIDs[syncKey(m.Network, m.MerchantID)] = true
	}

	// Query all existing merchants from Notion
	log.Info().Msg("Querying existing merchants from Notion")
	notionPages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return fmt.Errorf("failed to query Notion pages: %w", err)
	}

	log.Info().Int("notion_page_count", len(notionPages)).Msg("Retrieved existing Notion pages")

	// Build map of existing merchant keys in Notion (for deduplication)
	existingMerchantIDs := make(map[string]bool)
	for _, page := range notionPages {
		id := extractMerchantID(page)
		if id != "" {
			existingMerchantIDs[syncKey(extractNetwork(page), id)] = true
		}
	}

	// Delete stale merchants from Notion
	var deleted int
	for _, page := range notionPages {
		if extractNetwork(page) != network {
			continue
		}

		id := extractMerchantID(page)
		if id == "" || !validMerchantIDs[syncKey(network, id)] {
			if dryRun {
				log.Info().
					Str("merchant_id", id).
					Str("page_id", string(page.ID)).
					Msg("[DRY RUN] Would delete stale Notion page")
				deleted++
			} else {
				if err := notionClient.DeletePage(ctx, string(page.ID)); err != nil {
					log.Warn().
						Err(err).
						Str("merchant_id", id).
						Str("page_id", string(page.ID)).
						Msg("Failed to delete stale Notion page")
					continue
				}
				log.Info().
					Str("merchant_id", id).
					Str("page_id", string(page.ID)).
					Msg("Deleted stale Notion page")
				deleted++
			}
		}
	}

	// Sync merchants
	var created, skipped int
	for _, m := range merchants {
		// Skip if already exists in Notion
		if existingMerchantIDs[syncKey(m.Network, m.MerchantID)] {
			skipped++
			continue
		}

		if dryRun {
			log.Info().
				Str("merchant_id", m.MerchantID).
				Msg("[DRY RUN] Would create Notion page for merchant")
			created++
			continue
		}

		// Convert merchant to Notion properties
		props := MerchantToNotionProperties(m)

		page, err := notionClient.CreatePage(ctx, notionDBID, props)
		if err != nil {
			log.Warn().
				Err(err).
				Str("merchant_id", m.MerchantID).
				Msg("Failed to create Notion page for merchant")
			continue
		}

		log.Info().
			Str("merchant_id", m.MerchantID).
			Str("page_id", string(page.ID)).
			Msg("Created Notion page for merchant")
		created++
	}

	log.Info().
		Int("deleted", deleted).
		Int("created", created).
		Int("skipped", skipped).
		Int("total", len(merchants)).
		Msg("Merchant sync completed")

	return nil
}

// syncKey builds the Notion dedup key. Unique IDs are only unique within
// one network, so the key carries both.
func syncKey(network, uniqueID string) string {
	return network + "/" + uniqueID
}

// queryAllNotionPages queries all pages from a Notion database and returns them.
// Handles pagination automatically.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}

		// Only set StartCursor if we have a cursor value
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}

// extractSyncKey rebuilds the dedup key from a Notion page's properties.
// Returns empty string if the page carries no Transaction ID.
func extractSyncKey(page notionapi.Page) string {
	id := extractTransactionID(page)
	if id == "" {
		return ""
	}
	return syncKey(extractNetwork(page), id)
}

// extractTransactionID extracts the transaction ID from a Notion page's properties.
// Returns empty string if not found.
func extractTransactionID(page notionapi.Page) string {
	if prop, ok := page.Properties["Transaction ID"]; ok {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			if len(title.Title) > 0 {
				return title.Title[0].PlainText
			}
		}
	}
	return ""
}

// extractNetwork extracts the network name from a Notion page's properties.
// Returns empty string if not found.
func extractNetwork(page notionapi.Page) string {
	if prop, ok := page.Properties["Network"]; ok {
		if sel, ok := prop.(*notionapi.SelectProperty); ok {
			return sel.Select.Name
		}
	}
	return ""
}

// extractMerchantID extracts the merchant ID from a Notion page's properties.
// Returns empty string if not found.
func extractMerchantID(page notionapi.Page) string {
	if prop, ok := page.Properties["Merchant ID"]; ok {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			if len(title.Title) > 0 {
				return title.Title[0].PlainText
			}
		}
	}
	return ""
}
