package rawarchive

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeArchive struct {
	objects map[string][]byte
	err     error
}

func (f *fakeArchive) ArchivePage(ctx context.Context, objectName string, body []byte) error {
	if f.err != nil {
		return f.err
	}
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[objectName] = body
	return nil
}

func (f *fakeArchive) Fetch(ctx context.Context, gcsURI string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func TestTransportArchivesSuccessfulResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":[]}`)
	}))
	defer srv.Close()

	archive := &fakeArchive{}
	client := &http.Client{
		Transport: NewTransport(srv.Client().Transport, archive, "webgains", "run-1"),
	}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	// Caller still sees the full body after archiving
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != `{"data":[]}` {
		t.Errorf("body = %q, want original payload", body)
	}

	if len(archive.objects) != 1 {
		t.Fatalf("archived %d objects, want 1", len(archive.objects))
	}
	for name, stored := range archive.objects {
		if !strings.HasPrefix(name, "webgains/") || !strings.Contains(name, "run-1") {
			t.Errorf("object name %q missing network or run scope", name)
		}
		if string(stored) != `{"data":[]}` {
			t.Errorf("stored body = %q, want original payload", stored)
		}
	}
}

func TestTransportSkipsErrorResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	archive := &fakeArchive{}
	client := &http.Client{
		Transport: NewTransport(srv.Client().Transport, archive, "webgains", "run-1"),
	}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()

	if len(archive.objects) != 0 {
		t.Errorf("archived %d objects for a 401, want 0", len(archive.objects))
	}
}

func TestTransportToleratesArchiveFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":[]}`)
	}))
	defer srv.Close()

	archive := &fakeArchive{err: errors.New("bucket gone")}
	client := &http.Client{
		Transport: NewTransport(srv.Client().Transport, archive, "webgains", "run-1"),
	}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("get should not fail when archiving fails: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"data":[]}` {
		t.Errorf("body = %q, want original payload", body)
	}
}
