package bigquery

import (
	"math/big"
	"testing"
	"time"

	"github.com/dvloznov/affiliate-tracker/internal/affiliate"
)

func TestNewTransactionRow(t *testing.T) {
	tx := affiliate.Transaction{
		UniqueID:     "tx-100",
		MerchantID:   "1001",
		MerchantName: "Shoes R Us",
		Date:         time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		ClickDate:    time.Date(2026, 3, 13, 9, 0, 0, 0, time.UTC),
		CustomID:     "click-abc",
		Status:       affiliate.StatusConfirmed,
		Currency:     "EUR",
		Amount:       big.NewRat(1999, 100),
		Commission:   big.NewRat(150, 100),
		Paid:         true,
	}

	row := NewTransactionRow("webgains", "run-1", tx)

	if row.RowID == "" {
		t.Fatal("expected generated row id")
	}
	if row.Network != "webgains" {
		t.Errorf("Network = %q, want %q", row.Network, "webgains")
	}
	if row.PollRunID != "run-1" {
		t.Errorf("PollRunID = %q, want %q", row.PollRunID, "run-1")
	}
	if row.UniqueID != "tx-100" {
		t.Errorf("UniqueID = %q, want %q", row.UniqueID, "tx-100")
	}
	if got := row.TransactionDate.String(); got != "2026-03-14" {
		t.Errorf("TransactionDate = %s, want 2026-03-14", got)
	}
	if !row.ClickTS.Valid || !row.ClickTS.Timestamp.Equal(tx.ClickDate) {
		t.Errorf("ClickTS = %+v, want valid %s", row.ClickTS, tx.ClickDate)
	}
	if row.PaymentTS.Valid {
		t.Error("PaymentTS should be null for zero payment date")
	}
	if row.Status != "CONFIRMED" {
		t.Errorf("Status = %q, want CONFIRMED", row.Status)
	}
	if !row.Paid {
		t.Error("Paid should be true")
	}
	if got := row.Amount.FloatString(2); got != "19.99" {
		t.Errorf("Amount = %s, want 19.99", got)
	}
	if !row.CustomID.Valid || row.CustomID.StringVal != "click-abc" {
		t.Errorf("CustomID = %+v, want click-abc", row.CustomID)
	}
	if row.Info.Valid {
		t.Error("Info should be null when empty")
	}
}

func TestNewMerchantRow(t *testing.T) {
	row := NewMerchantRow("webgains", affiliate.Merchant{
		ID:   1001,
		Name: "Shoes R Us",
		URL:  "https://shoes.example",
	})

	if row.MerchantID != "1001" {
		t.Errorf("MerchantID = %q, want 1001", row.MerchantID)
	}
	if row.Network != "webgains" {
		t.Errorf("Network = %q, want webgains", row.Network)
	}
	if !row.URL.Valid || row.URL.StringVal != "https://shoes.example" {
		t.Errorf("URL = %+v, want https://shoes.example", row.URL)
	}
	if row.LaunchDate.Valid {
		t.Error("LaunchDate should be null when empty")
	}
}
