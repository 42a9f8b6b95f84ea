// Package webgains implements the affiliate.Network adapter for the
// Webgains platform REST API. Auth is a Bearer token; listings are paged
// with a data/pagination envelope; monetary values arrive as fixed-point
// integer strings with four implicit fractional digits.
package webgains

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dvloznov/affiliate-tracker/internal/affiliate"
	"github.com/dvloznov/affiliate-tracker/internal/fetch"
	"github.com/dvloznov/affiliate-tracker/internal/logger"
)

const (
	networkName    = "webgains"
	defaultBaseURL = "https://platform-api.webgains.com"

	// Transaction report page size; the API caps at 250.
	pageSize = 250
)

// Network is the Webgains adapter. One instance owns its credentials and
// campaign map; calls are synchronous with one request in flight.
type Network struct {
	client  *http.Client
	baseURL string
	creds   affiliate.Credentials

	// campaigns maps campaign id to name, loaded lazily on first use and
	// already restricted to SitesAllowed.
	campaigns map[int]string
}

// Option configures a Network.
type Option func(*Network)

// WithHTTPClient replaces the HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(n *Network) { n.client = c }
}

// WithBaseURL points the adapter at a different API host.
func WithBaseURL(u string) Option {
	return func(n *Network) { n.baseURL = u }
}

// New builds a Webgains adapter. The per-network field tables are
// validated here so a drifted schema map fails construction, not a batch.
func New(opts ...Option) (*Network, error) {
	if err := transactionFields.Validate(networkName,
		affiliate.FieldUniqueID,
		affiliate.FieldMerchantID,
		affiliate.FieldDate,
		affiliate.FieldStatus,
		affiliate.FieldCurrency,
		affiliate.FieldAmount,
		affiliate.FieldCommission,
	); err != nil {
		return nil, fmt.Errorf("webgains.New: %w", err)
	}
	n := &Network{
		client:  http.DefaultClient,
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Login stores the credentials. No I/O happens here; the campaign map is
// loaded lazily so a misconfigured adapter fails at CheckConnection or on
// first use, never at Login.
func (n *Network) Login(creds affiliate.Credentials) {
	n.creds = creds
	n.campaigns = nil
	if creds.Endpoint != "" {
		n.baseURL = trimSlash(creds.Endpoint)
	}
}

// CheckConnection reports whether the credential fields Webgains requires
// are present. Purely local, no network I/O.
func (n *Network) CheckConnection(ctx context.Context) bool {
	return n.creds.APIKey != "" && n.creds.PublisherID != ""
}

// MerchantList enumerates the programs visible to the account, restricted
// to SitesAllowed when that filter is configured. A partial listing is an
// error, not a silently shorter list.
func (n *Network) MerchantList(ctx context.Context) ([]affiliate.Merchant, error) {
	records, skipped := fetch.AllPages(ctx, func(ctx context.Context, page int) ([]byte, error) {
		u := fmt.Sprintf("%s/merchants/programs?page=%d", n.baseURL, page)
		return n.get(ctx, u)
	})
	if len(skipped) > 0 {
		return nil, fmt.Errorf("webgains: merchant listing incomplete, %d page(s) failed: %w", len(skipped), skipped[0])
	}

	allowed := allowedSet(n.creds.SitesAllowed)
	var merchants []affiliate.Merchant
	for _, raw := range records {
		rec, err := affiliate.DecodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("webgains: merchant record: %w", err)
		}
		m, err := normalizeMerchant(rec)
		if err != nil {
			return nil, fmt.Errorf("webgains: merchant record: %w", err)
		}
		if allowed != nil && !allowed[m.ID] {
			continue
		}
		merchants = append(merchants, m)
	}
	return merchants, nil
}

// TransactionList fetches the transaction report for the query window and
// normalizes every record. An unmapped status aborts the whole batch;
// pages that could not be fetched are reported in Report.Skipped.
func (n *Network) TransactionList(ctx context.Context, q affiliate.Query) (*affiliate.Report, error) {
	log := logger.WithNetwork(logger.FromContext(ctx), networkName)

	campaigns, err := n.loadCampaigns(ctx)
	if err != nil {
		return nil, err
	}
	ids := campaignFilter(campaigns, q)
	if len(ids) == 0 {
		// No campaigns to report on; nothing to fetch.
		return &affiliate.Report{}, nil
	}

	start, end := q.Window(time.Now())
	base := n.transactionsURL(ids, start, end)

	records, skipped := fetch.AllPages(ctx, func(ctx context.Context, page int) ([]byte, error) {
		return n.get(ctx, base+"&page="+strconv.Itoa(page))
	})

	report := &affiliate.Report{Skipped: skipped}
	for _, raw := range records {
		rec, err := affiliate.DecodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("webgains: transaction record: %w", err)
		}
		tx, err := normalizeTransaction(rec)
		if err != nil {
			return nil, err
		}
		report.Transactions = append(report.Transactions, tx)
	}

	if report.Partial() {
		log.Warn().Int("skipped_pages", len(skipped)).Msg("Transaction report is partial")
	}
	log.Info().Int("transactions", len(report.Transactions)).Msg("Fetched transaction report")
	return report, nil
}

// Vouchers lists the promotional codes of one campaign.
func (n *Network) Vouchers(ctx context.Context, siteID string) ([]affiliate.Voucher, error) {
	records, skipped := fetch.AllPages(ctx, func(ctx context.Context, page int) ([]byte, error) {
		u := fmt.Sprintf("%s/publishers/%s/campaigns/%s/vouchers?page=%d", n.baseURL, n.creds.PublisherID, siteID, page)
		return n.get(ctx, u)
	})
	if len(skipped) > 0 {
		return nil, fmt.Errorf("webgains: voucher listing incomplete, %d page(s) failed: %w", len(skipped), skipped[0])
	}

	var vouchers []affiliate.Voucher
	for _, raw := range records {
		var rec voucherRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("webgains: voucher record: %w", err)
		}
		vouchers = append(vouchers, rec.toVoucher())
	}
	return vouchers, nil
}

// Offers lists the promotional deals of one campaign.
func (n *Network) Offers(ctx context.Context, siteID string) ([]affiliate.Offer, error) {
	records, skipped := fetch.AllPages(ctx, func(ctx context.Context, page int) ([]byte, error) {
		u := fmt.Sprintf("%s/publishers/%s/campaigns/%s/offers?page=%d", n.baseURL, n.creds.PublisherID, siteID, page)
		return n.get(ctx, u)
	})
	if len(skipped) > 0 {
		return nil, fmt.Errorf("webgains: offer listing incomplete, %d page(s) failed: %w", len(skipped), skipped[0])
	}

	var offers []affiliate.Offer
	for _, raw := range records {
		var rec offerRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("webgains: offer record: %w", err)
		}
		offers = append(offers, rec.toOffer())
	}
	return offers, nil
}

// loadCampaigns fetches the publisher's campaign map once and keeps it
// for the adapter's lifetime, restricted to SitesAllowed.
func (n *Network) loadCampaigns(ctx context.Context) (map[int]string, error) {
	if n.campaigns != nil {
		return n.campaigns, nil
	}

	u := fmt.Sprintf("%s/publishers/%s/campaigns", n.baseURL, n.creds.PublisherID)
	body, err := n.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("webgains: loading campaigns: %w", err)
	}
	env, err := fetch.DecodeEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("webgains: loading campaigns: %w", err)
	}

	allowed := allowedSet(n.creds.SitesAllowed)
	campaigns := make(map[int]string)
	for _, raw := range env.Data {
		rec, err := affiliate.DecodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("webgains: campaign record: %w", err)
		}
		id, err := campaignFields.Int(rec, affiliate.FieldMerchantID)
		if err != nil {
			return nil, fmt.Errorf("webgains: campaign record: %w", err)
		}
		if allowed != nil && !allowed[int(id)] {
			continue
		}
		campaigns[int(id)] = campaignFields.OptionalString(rec, affiliate.FieldMerchantName)
	}
	n.campaigns = campaigns
	return campaigns, nil
}

func (n *Network) transactionsURL(campaignIDs []int, start, end time.Time) string {
	v := url.Values{}
	v.Set("sort_order", "ASC")
	v.Set("sort", "date")
	v.Set("size", strconv.Itoa(pageSize))
	for _, id := range campaignIDs {
		v.Add("filters[campaign_ids][]", strconv.Itoa(id))
	}
	v.Set("filters[start_date]", strconv.FormatInt(start.Unix(), 10))
	v.Set("filters[end_date]", strconv.FormatInt(end.Unix(), 10))
	return fmt.Sprintf("%s/publishers/%s/reports/transactions?%s", n.baseURL, n.creds.PublisherID, v.Encode())
}

func (n *Network) get(ctx context.Context, url string) ([]byte, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+n.creds.APIKey)
	return fetch.Get(ctx, n.client, url, header)
}

// campaignFilter returns the campaign ids to query, intersected with the
// query's merchant filter when one is set.
func campaignFilter(campaigns map[int]string, q affiliate.Query) []int {
	var ids []int
	for id := range campaigns {
		if !q.WantsMerchant(strconv.Itoa(id)) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// allowedSet turns the SitesAllowed list into a membership set. Returns
// nil when no restriction is configured. Duplicates in the input are
// harmless.
func allowedSet(sites []int) map[int]bool {
	if len(sites) == 0 {
		return nil
	}
	set := make(map[int]bool, len(sites))
	for _, id := range sites {
		set[id] = true
	}
	return set
}

func trimSlash(u string) string {
	for len(u) > 0 && u[len(u)-1] == '/' {
		u = u[:len(u)-1]
	}
	return u
}
