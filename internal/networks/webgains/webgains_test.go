package webgains

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dvloznov/affiliate-tracker/internal/affiliate"
)

const testPublisher = "pub-1"

// fixtures for a publisher with two campaigns and a two-page transaction
// report.
const (
	campaignsBody = `{
		"data": [
			{"id": 1001, "name": "Shop A"},
			{"id": 2002, "name": "Shop B"}
		],
		"pagination": {"current_page": 1, "last_page": 1}
	}`

	programsPage1 = `{
		"data": [
			{"id": 1001, "name": "Shop A", "homepage_url": "https://shop-a.example", "create_date": 1600000000},
			{"id": 2002, "name": "Shop B", "homepage_url": "https://shop-b.example", "create_date": 1610000000}
		],
		"pagination": {"current_page": 1, "last_page": 2}
	}`
	programsPage2 = `{
		"data": [
			{"id": 3003, "name": "Shop C", "homepage_url": "https://shop-c.example", "create_date": 1620000000}
		],
		"pagination": {"current_page": 2, "last_page": 2}
	}`

	transactionsPage1 = `{
		"data": [
			{
				"id": 111,
				"program": {"id": 1001, "name": "Shop A"},
				"date": 1700000000,
				"click_reference": "ref-1",
				"status": 20,
				"value": {"amount": "1234567", "currency_code": "EUR"},
				"commission": {"amount": "98765", "currency_code": "EUR"}
			}
		],
		"pagination": {"current_page": 1, "last_page": 2}
	}`
	transactionsPage2 = `{
		"data": [
			{
				"id": 222,
				"program": {"id": 2002, "name": "Shop B"},
				"date": 1700090000,
				"click_reference": "ref-2",
				"status": 10,
				"value": {"amount": "50000", "currency_code": "EUR"},
				"commission": {"amount": "2500", "currency_code": "EUR"}
			}
		],
		"pagination": {"current_page": 2, "last_page": 2}
	}`
)

// newTestAdapter wires a fixture server and a logged-in adapter. The
// mux is returned so individual tests can override routes.
func newTestAdapter(t *testing.T, creds affiliate.Credentials) (*Network, *http.ServeMux) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/publishers/"+testPublisher+"/campaigns", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, campaignsBody)
	})
	mux.HandleFunc("/merchants/programs", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, programsPage2)
			return
		}
		fmt.Fprint(w, programsPage1)
	})
	mux.HandleFunc("/publishers/"+testPublisher+"/reports/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, transactionsPage2)
			return
		}
		fmt.Fprint(w, transactionsPage1)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	n, err := New(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if creds.APIKey == "" {
		creds.APIKey = "test-key"
	}
	if creds.PublisherID == "" {
		creds.PublisherID = testPublisher
	}
	n.Login(creds)
	return n, mux
}

func TestCheckConnection(t *testing.T) {
	n, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	n.Login(affiliate.Credentials{})
	if n.CheckConnection(context.Background()) {
		t.Error("CheckConnection with no credentials = true, want false")
	}

	n.Login(affiliate.Credentials{APIKey: "k"})
	if n.CheckConnection(context.Background()) {
		t.Error("CheckConnection without publisher id = true, want false")
	}

	n.Login(affiliate.Credentials{APIKey: "k", PublisherID: "p"})
	if !n.CheckConnection(context.Background()) {
		t.Error("CheckConnection with full credentials = false, want true")
	}
}

func TestTransactionList(t *testing.T) {
	n, _ := newTestAdapter(t, affiliate.Credentials{})

	report, err := n.TransactionList(context.Background(), affiliate.Query{})
	if err != nil {
		t.Fatalf("TransactionList failed: %v", err)
	}
	if report.Partial() {
		t.Fatalf("report partial, skipped = %v", report.Skipped)
	}
	if len(report.Transactions) != 2 {
		t.Fatalf("transactions = %d, want 2", len(report.Transactions))
	}

	first, second := report.Transactions[0], report.Transactions[1]
	if first.UniqueID == second.UniqueID {
		t.Errorf("unique ids collide: %q", first.UniqueID)
	}

	if first.Status != affiliate.StatusConfirmed {
		t.Errorf("first status = %s, want CONFIRMED", first.Status)
	}
	if first.Paid {
		t.Error("status 20 marked paid")
	}
	if second.Status != affiliate.StatusConfirmed {
		t.Errorf("second status = %s, want CONFIRMED", second.Status)
	}
	if !second.Paid {
		t.Error("status 10 not marked paid")
	}

	// Fixed-point strings become exact decimals.
	if got := first.Amount.FloatString(4); got != "123.4567" {
		t.Errorf("first amount = %s, want 123.4567", got)
	}
	if got := first.Commission.FloatString(4); got != "9.8765" {
		t.Errorf("first commission = %s, want 9.8765", got)
	}
	if got := second.Amount.FloatString(4); got != "5.0000" {
		t.Errorf("second amount = %s, want 5.0000", got)
	}
	if got := second.Commission.FloatString(4); got != "0.2500" {
		t.Errorf("second commission = %s, want 0.2500", got)
	}

	if first.Currency != "EUR" {
		t.Errorf("currency = %q, want EUR", first.Currency)
	}
	if first.MerchantID != "1001" {
		t.Errorf("merchant id = %q, want 1001", first.MerchantID)
	}
	if first.CustomID != "ref-1" {
		t.Errorf("custom id = %q, want ref-1", first.CustomID)
	}
}

func TestTransactionList_UnmappedStatusAbortsBatch(t *testing.T) {
	n, _ := newTestAdapterWithTransactions(t, `{
		"data": [
			{
				"id": 333,
				"program": {"id": 1001, "name": "Shop A"},
				"date": 1700000000,
				"status": 99,
				"value": {"amount": "100", "currency_code": "EUR"},
				"commission": {"amount": "10", "currency_code": "EUR"}
			}
		],
		"pagination": {"current_page": 1, "last_page": 1}
	}`)

	_, err := n.TransactionList(context.Background(), affiliate.Query{})
	if err == nil {
		t.Fatal("TransactionList with unmapped status returned nil error")
	}
	var unmapped *affiliate.UnmappedStatusError
	if !errors.As(err, &unmapped) {
		t.Fatalf("error is %T, want *UnmappedStatusError", err)
	}
	if unmapped.Code != "99" {
		t.Errorf("unmapped code = %q, want 99", unmapped.Code)
	}
}

// newTestAdapterWithTransactions wires a fixture server whose
// transactions route serves the given body on every page.
func newTestAdapterWithTransactions(t *testing.T, transactionsBody string) (*Network, *http.ServeMux) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/publishers/"+testPublisher+"/campaigns", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, campaignsBody)
	})
	mux.HandleFunc("/publishers/"+testPublisher+"/reports/transactions", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, transactionsBody)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	n, err := New(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	n.Login(affiliate.Credentials{APIKey: "test-key", PublisherID: testPublisher})
	return n, mux
}

func TestTransactionList_NoCampaigns(t *testing.T) {
	// SitesAllowed excludes every campaign; nothing should be fetched.
	n, _ := newTestAdapter(t, affiliate.Credentials{SitesAllowed: []int{404}})

	report, err := n.TransactionList(context.Background(), affiliate.Query{})
	if err != nil {
		t.Fatalf("TransactionList failed: %v", err)
	}
	if len(report.Transactions) != 0 || report.Partial() {
		t.Errorf("report = %+v, want empty", report)
	}
}

func TestTransactionList_SkippedPageIsSurfaced(t *testing.T) {
	n, _ := newTestAdapterWithTransactions(t, "")

	// Empty bodies are unparseable; the single page is skipped and the
	// report says so.
	report, err := n.TransactionList(context.Background(), affiliate.Query{})
	if err != nil {
		t.Fatalf("TransactionList failed: %v", err)
	}
	if !report.Partial() {
		t.Error("report with unparseable page not flagged partial")
	}
	if len(report.Transactions) != 0 {
		t.Errorf("transactions = %d, want 0", len(report.Transactions))
	}
}

func TestMerchantList(t *testing.T) {
	n, _ := newTestAdapter(t, affiliate.Credentials{})

	merchants, err := n.MerchantList(context.Background())
	if err != nil {
		t.Fatalf("MerchantList failed: %v", err)
	}
	if len(merchants) != 3 {
		t.Fatalf("merchants = %d, want 3 across 2 pages", len(merchants))
	}
	if merchants[0].Name != "Shop A" || merchants[0].URL != "https://shop-a.example" {
		t.Errorf("first merchant = %+v", merchants[0])
	}
	if merchants[0].LaunchDate.IsZero() {
		t.Error("launch date not populated")
	}
}

func TestMerchantList_AllowList(t *testing.T) {
	// Duplicates in SitesAllowed are harmless; the result is a subset of
	// the allow-list with no duplicates.
	n, _ := newTestAdapter(t, affiliate.Credentials{SitesAllowed: []int{1001, 1001, 3003}})

	merchants, err := n.MerchantList(context.Background())
	if err != nil {
		t.Fatalf("MerchantList failed: %v", err)
	}

	allowed := map[int]bool{1001: true, 3003: true}
	seen := map[int]bool{}
	for _, m := range merchants {
		if !allowed[m.ID] {
			t.Errorf("merchant %d not in allow-list", m.ID)
		}
		if seen[m.ID] {
			t.Errorf("merchant %d returned twice", m.ID)
		}
		seen[m.ID] = true
	}
	if len(merchants) != 2 {
		t.Errorf("merchants = %d, want 2", len(merchants))
	}
}

func TestVouchersAndOffers(t *testing.T) {
	n, mux := newTestAdapter(t, affiliate.Credentials{})
	mux.HandleFunc("/publishers/"+testPublisher+"/campaigns/1001/vouchers", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"data": [{"id": 5, "code": "SAVE10", "description": "10% off", "destination_url": "https://shop-a.example/sale", "start_date": "2026-01-01", "end_date": "2026-02-01"}],
			"pagination": {"current_page": 1, "last_page": 1}
		}`)
	})
	mux.HandleFunc("/publishers/"+testPublisher+"/campaigns/1001/offers", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"data": [{"id": 8, "title": "Spring sale", "description": "Everything reduced", "destination_url": "https://shop-a.example/spring"}],
			"pagination": {"current_page": 1, "last_page": 1}
		}`)
	})

	vouchers, err := n.Vouchers(context.Background(), "1001")
	if err != nil {
		t.Fatalf("Vouchers failed: %v", err)
	}
	if len(vouchers) != 1 || vouchers[0].Code != "SAVE10" {
		t.Errorf("vouchers = %+v", vouchers)
	}
	if vouchers[0].StartsAt.IsZero() {
		t.Error("voucher start date not parsed")
	}

	offers, err := n.Offers(context.Background(), "1001")
	if err != nil {
		t.Fatalf("Offers failed: %v", err)
	}
	if len(offers) != 1 || offers[0].Title != "Spring sale" {
		t.Errorf("offers = %+v", offers)
	}
}
