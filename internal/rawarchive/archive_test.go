package rawarchive

import (
	"testing"
	"time"
)

func TestObjectName(t *testing.T) {
	fetchedAt := time.Date(2026, 8, 29, 14, 5, 0, 0, time.UTC)
	got := ObjectName("webgains", "run-42", fetchedAt, 3)
	want := "webgains/2026-08-29/run-42/page-3.json"
	if got != want {
		t.Errorf("ObjectName = %q, want %q", got, want)
	}
}

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri     string
		bucket  string
		object  string
		wantErr bool
	}{
		{uri: "gs://my-bucket/webgains/2026-08-29/run-42/page-1.json", bucket: "my-bucket", object: "webgains/2026-08-29/run-42/page-1.json"},
		{uri: "gs://my-bucket", wantErr: true},
		{uri: "https://example.com/x", wantErr: true},
		{uri: "", wantErr: true},
	}

	for _, tt := range tests {
		bucket, object, err := ParseURI(tt.uri)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseURI(%q): expected error", tt.uri)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseURI(%q): %v", tt.uri, err)
			continue
		}
		if bucket != tt.bucket || object != tt.object {
			t.Errorf("ParseURI(%q) = %q, %q; want %q, %q", tt.uri, bucket, object, tt.bucket, tt.object)
		}
	}
}

func TestGCSArchiveServiceURI(t *testing.T) {
	s := NewGCSArchiveService("raw-pages")
	got := s.URI("webgains/2026-08-29/run-42/page-1.json")
	want := "gs://raw-pages/webgains/2026-08-29/run-42/page-1.json"
	if got != want {
		t.Errorf("URI = %q, want %q", got, want)
	}
}
