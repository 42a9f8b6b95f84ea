// Package affiliate defines the canonical data model and the adapter
// contract that every network implementation satisfies. Orchestration code
// holds values of the Network interface and never a concrete network type.
package affiliate

import (
	"context"
	"math/big"
	"time"

	"github.com/dvloznov/affiliate-tracker/internal/fetch"
)

// Status is the canonical lifecycle state of a transaction. These three
// values are the only statuses exposed past the adapter boundary; an
// unmapped raw code is a hard failure, never a silent default.
type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusPending   Status = "PENDING"
	StatusDeclined  Status = "DECLINED"
)

// Credentials carries the named secrets and identifiers a network needs.
// Every key is optional at Login time; CheckConnection reports which
// networks consider a field required. The struct is copied into the
// adapter at Login and never mutated afterwards.
type Credentials struct {
	User        string `json:"user,omitempty"`
	Password    string `json:"password,omitempty"`
	APIKey      string `json:"api_key,omitempty"`
	APISecret   string `json:"api_secret,omitempty"` // private half of a signing key pair, for networks with signed headers
	SiteID      string `json:"site_id,omitempty"`    // network-specific program/site id; some networks accept a full endpoint URL here
	PublisherID string `json:"publisher_id,omitempty"`
	Endpoint    string `json:"endpoint,omitempty"` // optional base-URL override (white-label hosts, tests)

	// SitesAllowed restricts merchant discovery to these program ids.
	// Empty means no restriction.
	SitesAllowed []int `json:"sites_allowed,omitempty"`
}

// Merchant is one program an account may report on, scoped to a single
// network. Read-only snapshot; identity is ID within that network only.
type Merchant struct {
	ID         int
	Name       string
	URL        string
	LaunchDate time.Time
}

// Transaction is one reported sale or lead event in the canonical shape.
// Amount and Commission are exact decimals in Currency's major unit; they
// are parsed from the wire with string arithmetic, never floating point.
type Transaction struct {
	UniqueID     string
	MerchantID   string
	MerchantName string

	Date        time.Time
	ClickDate   time.Time
	UpdateDate  time.Time
	PaymentDate time.Time

	CustomID      string
	Status        Status
	Currency      string
	Amount        *big.Rat
	Commission    *big.Rat
	Info          string
	StatusComment string
	Category      string
	LeadType      string
	AdspaceID     string

	// Paid is set by networks that distinguish a paid-out confirmed
	// transaction from a merely approved one.
	Paid bool
}

// Voucher is a promotional code a network exposes per program. Optional
// adapter capability.
type Voucher struct {
	ID             int
	Code           string
	Description    string
	DestinationURL string
	StartsAt       time.Time
	EndsAt         time.Time
}

// Offer is a promotional deal a network exposes per program. Optional
// adapter capability.
type Offer struct {
	ID             int
	Title          string
	Description    string
	DestinationURL string
	StartsAt       time.Time
	EndsAt         time.Time
}

// Query bounds a transaction listing. Zero dates fall back to the
// defaults in Window. MerchantIDs narrows by merchant id on networks that
// support it and is ignored elsewhere.
type Query struct {
	MerchantIDs []string
	Start       time.Time
	End         time.Time
}

// Window resolves the effective date range. An absent start defaults to
// one year back; an absent end defaults to one minute ago so a
// still-mutating current instant is never queried.
func (q Query) Window(now time.Time) (start, end time.Time) {
	start, end = q.Start, q.End
	if start.IsZero() {
		start = now.AddDate(-1, 0, 0)
	}
	if end.IsZero() {
		end = now.Add(-time.Minute)
	}
	return start, end
}

// WantsMerchant reports whether id passes the query's merchant filter.
// An empty filter admits everything.
func (q Query) WantsMerchant(id string) bool {
	if len(q.MerchantIDs) == 0 {
		return true
	}
	for _, m := range q.MerchantIDs {
		if m == id {
			return true
		}
	}
	return false
}

// Report is the result of one transaction listing. Callers receive either
// a fully-classified Transactions slice plus an explicit record of pages
// that could not be fetched, or a hard error; there is no partial-but-
// unflagged outcome.
type Report struct {
	Transactions []Transaction
	Skipped      []fetch.PageError
}

// Partial reports whether any page was skipped, i.e. Transactions may be
// incomplete.
func (r *Report) Partial() bool {
	return len(r.Skipped) > 0
}

// Network is the uniform adapter contract. Login performs no I/O and
// never fails; CheckConnection is a cheap local credential check (plus a
// lightweight remote probe where the network requires one) and returns
// false rather than erroring on missing configuration. MerchantList may
// return an empty list on networks without program discovery. Vouchers
// and Offers return ErrNotImplemented on networks that lack them, never
// an empty success.
type Network interface {
	Login(creds Credentials)
	CheckConnection(ctx context.Context) bool
	MerchantList(ctx context.Context) ([]Merchant, error)
	TransactionList(ctx context.Context, q Query) (*Report, error)
	Vouchers(ctx context.Context, siteID string) ([]Voucher, error)
	Offers(ctx context.Context, siteID string) ([]Offer, error)
}
