// Package fetch implements the bounded pagination loop shared by every
// network adapter: fetch a page, validate the body, read the server's own
// reported last-page value, and stop when the declared page count is
// exhausted.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dvloznov/affiliate-tracker/internal/logger"
)

// Pagination is the envelope block a paged endpoint uses to report its
// own page count.
type Pagination struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
}

// Envelope is the structured response shape of a paged list endpoint: a
// data array of raw records plus the pagination block.
type Envelope struct {
	Data       []json.RawMessage `json:"data"`
	Pagination Pagination        `json:"pagination"`
}

// DecodeEnvelope confirms a body is well-formed JSON of the expected
// shape before any field access. An unparseable body yields an error, and
// the page contributes zero records.
func DecodeEnvelope(body []byte) (*Envelope, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("DecodeEnvelope: empty response body")
	}
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("DecodeEnvelope: %w", err)
	}
	return &env, nil
}

// PageError records one page that could not be fetched or parsed. The
// page is skipped, not retried, but callers always see how many pages
// went missing instead of trusting a silently-incomplete list.
type PageError struct {
	Page int
	Err  error
}

func (e PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

func (e PageError) Unwrap() error {
	return e.Err
}

// PageFunc fetches one page and returns its raw body.
type PageFunc func(ctx context.Context, page int) ([]byte, error)

// AllPages accumulates the data arrays of every page of a listing.
//
// The loop starts at page 1 with an assumed last page of 1 and grows the
// bound monotonically from the server's reported last_page, so a zero or
// non-increasing report behaves as "one page only" and the loop can never
// spin on an inconsistent count. A failed or unparseable page is recorded
// in the returned PageError slice and the loop moves on; context
// cancellation stops the loop with the cancellation recorded against the
// current page.
func AllPages(ctx context.Context, fn PageFunc) ([]json.RawMessage, []PageError) {
	log := logger.FromContext(ctx)

	var records []json.RawMessage
	var skipped []PageError

	last := 1
	for page := 1; page <= last; page++ {
		if err := ctx.Err(); err != nil {
			skipped = append(skipped, PageError{Page: page, Err: err})
			return records, skipped
		}

		body, err := fn(ctx, page)
		if err != nil {
			log.Warn().Int("page", page).Err(err).Msg("Page fetch failed, skipping")
			skipped = append(skipped, PageError{Page: page, Err: err})
			continue
		}

		env, err := DecodeEnvelope(body)
		if err != nil {
			log.Warn().Int("page", page).Err(err).Msg("Page body unparseable, skipping")
			skipped = append(skipped, PageError{Page: page, Err: err})
			continue
		}

		if lp := env.Pagination.LastPage; lp > last {
			last = lp
		}
		records = append(records, env.Data...)
	}

	return records, skipped
}
