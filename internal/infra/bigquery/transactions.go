package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/dvloznov/affiliate-tracker/internal/affiliate"
)

type TransactionRow struct {
	RowID string `bigquery:"row_id"` // REQUIRED

	Network  string `bigquery:"network"`   // REQUIRED
	UniqueID string `bigquery:"unique_id"` // REQUIRED, network-scoped id

	PollRunID string `bigquery:"poll_run_id"` // NULLABLE

	MerchantID   string              `bigquery:"merchant_id"`   // REQUIRED
	MerchantName bigquery.NullString `bigquery:"merchant_name"` // NULLABLE

	TransactionDate civil.Date             `bigquery:"transaction_date"` // REQUIRED in schema
	ClickTS         bigquery.NullTimestamp `bigquery:"click_ts"`         // NULLABLE
	UpdateTS        bigquery.NullTimestamp `bigquery:"update_ts"`        // NULLABLE
	PaymentTS       bigquery.NullTimestamp `bigquery:"payment_ts"`       // NULLABLE

	CustomID bigquery.NullString `bigquery:"custom_id"` // NULLABLE

	Amount     *big.Rat `bigquery:"amount"`     // REQUIRED NUMERIC
	Commission *big.Rat `bigquery:"commission"` // REQUIRED NUMERIC
	Currency   string   `bigquery:"currency"`   // REQUIRED STRING

	Status string `bigquery:"status"` // REQUIRED, one of CONFIRMED/PENDING/DECLINED
	Paid   bool   `bigquery:"paid"`

	Info          bigquery.NullString `bigquery:"info"`           // NULLABLE
	StatusComment bigquery.NullString `bigquery:"status_comment"` // NULLABLE
	Category      bigquery.NullString `bigquery:"category"`       // NULLABLE
	LeadType      bigquery.NullString `bigquery:"lead_type"`      // NULLABLE
	AdspaceID     bigquery.NullString `bigquery:"adspace_id"`     // NULLABLE

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED (default CURRENT_TIMESTAMP)
}

// NewTransactionRow maps a normalized transaction to its warehouse row.
// pollRunID ties the row back to the poll run that produced it and may
// be empty for ad-hoc inserts.
func NewTransactionRow(network, pollRunID string, t affiliate.Transaction) *TransactionRow {
	return &TransactionRow{
		RowID:           uuid.NewString(),
		Network:         network,
		UniqueID:        t.UniqueID,
		PollRunID:       pollRunID,
		MerchantID:      t.MerchantID,
		MerchantName:    nullString(t.MerchantName),
		TransactionDate: civil.DateOf(t.Date),
		ClickTS:         nullTimestamp(t.ClickDate),
		UpdateTS:        nullTimestamp(t.UpdateDate),
		PaymentTS:       nullTimestamp(t.PaymentDate),
		CustomID:        nullString(t.CustomID),
		Amount:          t.Amount,
		Commission:      t.Commission,
		Currency:        t.Currency,
		Status:          string(t.Status),
		Paid:            t.Paid,
		Info:            nullString(t.Info),
		StatusComment:   nullString(t.StatusComment),
		Category:        nullString(t.Category),
		LeadType:        nullString(t.LeadType),
		AdspaceID:       nullString(t.AdspaceID),
		CreatedTS:       time.Now(),
	}
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

func nullTimestamp(t time.Time) bigquery.NullTimestamp {
	return bigquery.NullTimestamp{Timestamp: t, Valid: !t.IsZero()}
}
