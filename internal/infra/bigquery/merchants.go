package bigquery

import (
	"strconv"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/affiliate-tracker/internal/affiliate"
)

type MerchantRow struct {
	MerchantID string `bigquery:"merchant_id"` // REQUIRED, network-scoped id
	Network    string `bigquery:"network"`     // REQUIRED
	Name       string `bigquery:"name"`        // REQUIRED

	URL        bigquery.NullString `bigquery:"url"`         // NULLABLE
	LaunchDate bigquery.NullDate   `bigquery:"launch_date"` // NULLABLE, as reported by the network

	CreatedTS bigquery.NullTimestamp `bigquery:"created_ts"` // NULLABLE (default CURRENT_TIMESTAMP())
}

// NewMerchantRow maps a catalog merchant to its warehouse row.
func NewMerchantRow(network string, m affiliate.Merchant) *MerchantRow {
	row := &MerchantRow{
		MerchantID: strconv.Itoa(m.ID),
		Network:    network,
		Name:       m.Name,
		URL:        nullString(m.URL),
	}
	if !m.LaunchDate.IsZero() {
		row.LaunchDate = bigquery.NullDate{Date: civil.DateOf(m.LaunchDate), Valid: true}
	}
	return row
}
