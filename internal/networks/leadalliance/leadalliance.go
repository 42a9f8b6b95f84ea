// Package leadalliance implements the affiliate.Network adapter for the
// Lead Alliance partner API. Requests carry HTTP Basic auth plus a signed
// lea-Public/lea-hash header pair; the transaction listing is a single
// unpaged JSON array. White-label merchants run the same API under their
// own host, selected via an endpoint override.
package leadalliance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dvloznov/affiliate-tracker/internal/affiliate"
	"github.com/dvloznov/affiliate-tracker/internal/fetch"
	"github.com/dvloznov/affiliate-tracker/internal/logger"
)

const (
	networkName    = "leadalliance"
	defaultBaseURL = "https://www.lead-alliance.net"
)

// Network is the Lead Alliance adapter.
type Network struct {
	client *http.Client
	creds  affiliate.Credentials

	// Resolved at Login from the endpoint override or a URL-valued
	// SiteID (white-label hosts such as partner storefronts).
	baseURL   string
	programID string
}

// Option configures a Network.
type Option func(*Network)

// WithHTTPClient replaces the HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(n *Network) { n.client = c }
}

// New builds a Lead Alliance adapter and validates its field table.
func New(opts ...Option) (*Network, error) {
	if err := transactionFields.Validate(networkName,
		affiliate.FieldUniqueID,
		affiliate.FieldMerchantID,
		affiliate.FieldMerchantName,
		affiliate.FieldDate,
		affiliate.FieldStatus,
		affiliate.FieldCurrency,
		affiliate.FieldAmount,
		affiliate.FieldCommission,
	); err != nil {
		return nil, fmt.Errorf("leadalliance.New: %w", err)
	}
	n := &Network{client: http.DefaultClient}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Login stores the credentials and resolves the endpoint. SiteID usually
// carries a program id, but a URL-valued SiteID selects a white-label API
// host instead. No I/O happens here.
func (n *Network) Login(creds affiliate.Credentials) {
	n.creds = creds
	n.baseURL = defaultBaseURL
	n.programID = creds.SiteID

	if strings.Contains(creds.SiteID, "http") {
		n.baseURL = creds.SiteID
		n.programID = ""
	}
	if creds.Endpoint != "" {
		n.baseURL = creds.Endpoint
	}
	n.baseURL = strings.TrimSuffix(n.baseURL, "/")
}

// CheckConnection reports whether the signing key pair is configured.
// Purely local, no network I/O.
func (n *Network) CheckConnection(ctx context.Context) bool {
	return n.creds.APIKey != "" && n.creds.APISecret != ""
}

// MerchantList returns an empty list: the partner API has no program
// discovery endpoint, and per the adapter contract that is a valid
// outcome, distinct from an unimplemented optional capability.
func (n *Network) MerchantList(ctx context.Context) ([]affiliate.Merchant, error) {
	return nil, nil
}

// TransactionList fetches the transaction listing for the query window.
// The endpoint is unpaged, so the whole listing behaves as a single page;
// a transport or parse failure is recorded in Report.Skipped rather than
// being passed off as zero transactions.
func (n *Network) TransactionList(ctx context.Context, q affiliate.Query) (*affiliate.Report, error) {
	log := logger.WithNetwork(logger.FromContext(ctx), networkName)

	start, end := q.Window(time.Now())

	v := url.Values{}
	v.Set("date", start.Format("2006-01-02"))
	v.Set("date_end", end.Format("2006-01-02"))
	if n.programID != "" {
		v.Set("program_id", n.programID)
	}
	u := n.baseURL + "/api/v2/partner/transactions?" + v.Encode()

	report := &affiliate.Report{}

	body, err := fetch.Get(ctx, n.client, u, n.header())
	if err != nil {
		log.Warn().Err(err).Msg("Transaction listing failed")
		report.Skipped = append(report.Skipped, fetch.PageError{Page: 1, Err: err})
		return report, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		log.Warn().Err(err).Msg("Transaction listing unparseable")
		report.Skipped = append(report.Skipped, fetch.PageError{Page: 1, Err: err})
		return report, nil
	}

	for _, raw := range records {
		rec, err := affiliate.DecodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("leadalliance: transaction record: %w", err)
		}
		tx, err := normalizeTransaction(rec)
		if err != nil {
			return nil, err
		}
		if !q.WantsMerchant(tx.MerchantID) {
			continue
		}
		report.Transactions = append(report.Transactions, tx)
	}

	log.Info().Int("transactions", len(report.Transactions)).Msg("Fetched transaction listing")
	return report, nil
}

// Vouchers is not offered by the partner API.
func (n *Network) Vouchers(ctx context.Context, siteID string) ([]affiliate.Voucher, error) {
	return nil, fmt.Errorf("leadalliance: vouchers: %w", affiliate.ErrNotImplemented)
}

// Offers is not offered by the partner API.
func (n *Network) Offers(ctx context.Context, siteID string) ([]affiliate.Offer, error) {
	return nil, fmt.Errorf("leadalliance: offers: %w", affiliate.ErrNotImplemented)
}

// header builds the authentication headers: Basic auth from the account
// credentials plus the lea-Public key and the lea-hash request signature.
func (n *Network) header() http.Header {
	h := http.Header{}
	basic := base64.StdEncoding.EncodeToString([]byte(n.creds.User + ":" + n.creds.Password))
	h.Set("Authorization", "Basic "+basic)
	h.Set("Content-Type", "application/json")
	h.Set("lea-Public", n.creds.APIKey)
	h.Set("lea-hash", signature(n.creds.APISecret))
	return h
}

// signature is the hex HMAC-SHA256 the API expects in lea-hash. GET
// requests have no body, so the message is empty.
func signature(secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	return hex.EncodeToString(mac.Sum(nil))
}
