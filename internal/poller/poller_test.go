package poller

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/dvloznov/affiliate-tracker/internal/affiliate"
	"github.com/dvloznov/affiliate-tracker/internal/fetch"
	"github.com/dvloznov/affiliate-tracker/internal/infra/bigquery"
)

type stubNetwork struct {
	creds     affiliate.Credentials
	connected bool
	report    *affiliate.Report
	reportErr error
	merchants []affiliate.Merchant
}

func (s *stubNetwork) Login(creds affiliate.Credentials)    { s.creds = creds }
func (s *stubNetwork) CheckConnection(context.Context) bool { return s.connected }
func (s *stubNetwork) MerchantList(context.Context) ([]affiliate.Merchant, error) {
	return s.merchants, nil
}
func (s *stubNetwork) TransactionList(context.Context, affiliate.Query) (*affiliate.Report, error) {
	return s.report, s.reportErr
}
func (s *stubNetwork) Vouchers(context.Context, string) ([]affiliate.Voucher, error) {
	return nil, affiliate.ErrNotImplemented
}
func (s *stubNetwork) Offers(context.Context, string) ([]affiliate.Offer, error) {
	return nil, affiliate.ErrNotImplemented
}

type fakeRepo struct {
	inserted  []*bigquery.TransactionRow
	merchants []*bigquery.MerchantRow
	failed    bool
	succeeded bool
	txCount   int
	skipped   int
	insertErr error
}

func (f *fakeRepo) InsertTransactions(ctx context.Context, rows []*bigquery.TransactionRow) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, rows...)
	return nil
}

func (f *fakeRepo) QueryTransactionsByDateRange(ctx context.Context, network string, start, end time.Time) ([]*bigquery.TransactionRow, error) {
	return f.inserted, nil
}

func (f *fakeRepo) UpsertMerchant(ctx context.Context, row *bigquery.MerchantRow) error {
	f.merchants = append(f.merchants, row)
	return nil
}

func (f *fakeRepo) ListMerchantsByNetwork(ctx context.Context, network string) ([]*bigquery.MerchantRow, error) {
	return f.merchants, nil
}

func (f *fakeRepo) StartPollRun(ctx context.Context, network string, start, end time.Time) (string, error) {
	return "run-1", nil
}

func (f *fakeRepo) MarkPollRunFailed(ctx context.Context, pollRunID string, pollErr error) {
	f.failed = true
}

func (f *fakeRepo) MarkPollRunSucceeded(ctx context.Context, pollRunID string, transactionCount, skippedPages int) error {
	f.succeeded = true
	f.txCount = transactionCount
	f.skipped = skippedPages
	return nil
}

func sampleTransaction(id string) affiliate.Transaction {
	return affiliate.Transaction{
		UniqueID:   id,
		MerchantID: "1001",
		Date:       time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Status:     affiliate.StatusPending,
		Currency:   "EUR",
		Amount:     big.NewRat(100, 1),
		Commission: big.NewRat(5, 1),
	}
}

func TestRunLandsTransactions(t *testing.T) {
	adapter := &stubNetwork{
		connected: true,
		report: &affiliate.Report{
			Transactions: []affiliate.Transaction{sampleTransaction("tx-1"), sampleTransaction("tx-2")},
			Skipped:      []fetch.PageError{{Page: 3, Err: errors.New("boom")}},
		},
		merchants: []affiliate.Merchant{{ID: 1001, Name: "Shoes R Us"}},
	}
	repo := &fakeRepo{}

	res, err := Run(context.Background(), adapter, repo, Options{
		Network:       "webgains",
		SyncMerchants: true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.PollRunID != "run-1" {
		t.Errorf("PollRunID = %q, want run-1", res.PollRunID)
	}
	if res.Transactions != 2 || res.SkippedPages != 1 {
		t.Errorf("Result = %+v, want 2 transactions, 1 skipped page", res)
	}
	if res.Merchants != 1 {
		t.Errorf("Merchants = %d, want 1", res.Merchants)
	}
	if len(repo.inserted) != 2 {
		t.Fatalf("inserted %d rows, want 2", len(repo.inserted))
	}
	if repo.inserted[0].Network != "webgains" || repo.inserted[0].PollRunID != "run-1" {
		t.Errorf("row = %+v, want network webgains, poll run run-1", repo.inserted[0])
	}
	if !repo.succeeded || repo.txCount != 2 || repo.skipped != 1 {
		t.Errorf("run not marked succeeded with counters: %+v", repo)
	}
	if len(repo.merchants) != 1 || repo.merchants[0].MerchantID != "1001" {
		t.Errorf("merchants = %+v, want merchant 1001", repo.merchants)
	}
}

func TestRunBadCredentials(t *testing.T) {
	adapter := &stubNetwork{connected: false}
	repo := &fakeRepo{}

	if _, err := Run(context.Background(), adapter, repo, Options{Network: "webgains"}); err == nil {
		t.Fatal("expected error for incomplete credentials")
	}
	if repo.failed || repo.succeeded {
		t.Error("no poll run should be recorded before credentials check passes")
	}
}

func TestRunFetchFailureMarksRunFailed(t *testing.T) {
	adapter := &stubNetwork{
		connected: true,
		reportErr: errors.New("network down"),
	}
	repo := &fakeRepo{}

	if _, err := Run(context.Background(), adapter, repo, Options{Network: "leadalliance"}); err == nil {
		t.Fatal("expected error when the pull fails")
	}
	if !repo.failed {
		t.Error("poll run should be marked failed")
	}
	if repo.succeeded {
		t.Error("poll run must not be marked succeeded")
	}
}

func TestRunInsertFailureMarksRunFailed(t *testing.T) {
	adapter := &stubNetwork{
		connected: true,
		report: &affiliate.Report{
			Transactions: []affiliate.Transaction{sampleTransaction("tx-1")},
		},
	}
	repo := &fakeRepo{insertErr: errors.New("quota exceeded")}

	if _, err := Run(context.Background(), adapter, repo, Options{Network: "webgains"}); err == nil {
		t.Fatal("expected error when the insert fails")
	}
	if !repo.failed {
		t.Error("poll run should be marked failed")
	}
}
