package notionsync

import (
	"math/big"
	"testing"
	"time"

	bq "cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/jomei/notionapi"

	"github.com/dvloznov/affiliate-tracker/internal/infra/bigquery"
)

func TestTransactionToNotionProperties(t *testing.T) {
	tx := &bigquery.TransactionRow{
		RowID:           "row-1",
		Network:         "webgains",
		UniqueID:        "tx-100",
		MerchantID:      "1001",
		MerchantName:    bq.NullString{StringVal: "Shoes R Us", Valid: true},
		TransactionDate: civil.Date{Year: 2026, Month: time.March, Day: 14},
		Amount:          big.NewRat(1999, 100),
		Commission:      big.NewRat(150, 100),
		Currency:        "EUR",
		Status:          "CONFIRMED",
		Paid:            true,
		CreatedTS:       time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	}

	props := TransactionToNotionProperties(tx)

	title, ok := props["Transaction ID"].(notionapi.TitleProperty)
	if !ok || len(title.Title) == 0 || title.Title[0].Text.Content != "tx-100" {
		t.Errorf("Transaction ID property = %+v, want title tx-100", props["Transaction ID"])
	}

	network, ok := props["Network"].(notionapi.SelectProperty)
	if !ok || network.Select.Name != "webgains" {
		t.Errorf("Network property = %+v, want webgains", props["Network"])
	}

	amount, ok := props["Amount"].(notionapi.NumberProperty)
	if !ok || amount.Number != 19.99 {
		t.Errorf("Amount property = %+v, want 19.99", props["Amount"])
	}

	status, ok := props["Status"].(notionapi.SelectProperty)
	if !ok || status.Select.Name != "CONFIRMED" {
		t.Errorf("Status property = %+v, want CONFIRMED", props["Status"])
	}

	paid, ok := props["Paid"].(notionapi.CheckboxProperty)
	if !ok || !paid.Checkbox {
		t.Errorf("Paid property = %+v, want checked", props["Paid"])
	}

	if _, present := props["Custom ID"]; present {
		t.Error("Custom ID should be omitted when empty")
	}
	if _, present := props["Click Date"]; present {
		t.Error("Click Date should be omitted when unset")
	}
}

func TestMerchantToNotionProperties(t *testing.T) {
	m := &bigquery.MerchantRow{
		MerchantID: "1001",
		Network:    "webgains",
		Name:       "Shoes R Us",
		URL:        bq.NullString{StringVal: "https://shoes.example", Valid: true},
	}

	props := MerchantToNotionProperties(m)

	title, ok := props["Merchant ID"].(notionapi.TitleProperty)
	if !ok || len(title.Title) == 0 || title.Title[0].Text.Content != "1001" {
		t.Errorf("Merchant ID property = %+v, want title 1001", props["Merchant ID"])
	}

	site, ok := props["Website"].(notionapi.URLProperty)
	if !ok || site.URL != "https://shoes.example" {
		t.Errorf("Website property = %+v, want https://shoes.example", props["Website"])
	}

	if _, present := props["Launched"]; present {
		t.Error("Launched should be omitted when empty")
	}
}

func TestSyncKey(t *testing.T) {
	if got := syncKey("webgains", "tx-1"); got != "webgains/tx-1" {
		t.Errorf("syncKey = %q, want webgains/tx-1", got)
	}
}
