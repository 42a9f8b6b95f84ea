package rawarchive

import (
	"bytes"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/dvloznov/affiliate-tracker/internal/logger"
)

// Transport is an http.RoundTripper that copies every successful response
// body into the archive before handing it to the caller. Archive failures
// are logged, never surfaced; losing an archive copy must not fail a poll.
type Transport struct {
	// Base performs the actual request. nil means http.DefaultTransport.
	Base http.RoundTripper

	// Archive receives the response bodies.
	Archive ArchiveService

	// Network and PollRunID scope the object names.
	Network   string
	PollRunID string

	seq atomic.Int64
}

// NewTransport wraps base with archiving for one poll run.
func NewTransport(base http.RoundTripper, archive ArchiveService, network, pollRunID string) *Transport {
	return &Transport{
		Base:      base,
		Archive:   archive,
		Network:   network,
		PollRunID: pollRunID,
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		return resp, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || resp.Body == nil {
		return resp, nil
	}

	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return resp, readErr
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	ctx := req.Context()
	log := logger.FromContext(ctx)

	objectName := ObjectName(t.Network, t.PollRunID, time.Now(), int(t.seq.Add(1)))
	if archiveErr := t.Archive.ArchivePage(ctx, objectName, body); archiveErr != nil {
		log.Warn().
			Err(archiveErr).
			Str("object", objectName).
			Msg("Failed to archive raw page")
	}

	return resp, nil
}

var _ http.RoundTripper = (*Transport)(nil)
