// Package rawarchive stores the raw page bodies returned by the networks
// in Google Cloud Storage, so a bad normalization run can be replayed
// without re-polling the network.
package rawarchive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// ObjectName builds the archive object path for one report page.
// Layout: <network>/<YYYY-MM-DD>/<poll_run_id>/page-<n>.json
func ObjectName(network, pollRunID string, fetchedAt time.Time, page int) string {
	return fmt.Sprintf("%s/%s/%s/page-%d.json", network, fetchedAt.Format("2006-01-02"), pollRunID, page)
}

// ArchivePage uploads one raw page body to the given GCS bucket.
// It assumes Application Default Credentials are configured
// (gcloud auth application-default login).
func ArchivePage(ctx context.Context, bucketName, objectName string, body []byte) error {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("ArchivePage: create storage client: %w", err)
	}
	defer client.Close()

	return archivePageWithClient(ctx, client, bucketName, objectName, body)
}

func archivePageWithClient(ctx context.Context, client *storage.Client, bucketName, objectName string, body []byte) error {
	bkt := client.Bucket(bucketName)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	obj := bkt.Object(objectName)

	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"
	defer func() {
		// Ensure the writer is closed even on early returns
		_ = w.Close()
	}()

	if _, err := io.Copy(w, bytes.NewReader(body)); err != nil {
		return fmt.Errorf("ArchivePage: copy body to GCS writer: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("ArchivePage: finalize upload: %w", err)
	}

	return nil
}

// Fetch downloads the archived bytes from the given GCS URI.
func Fetch(ctx context.Context, gcsURI string) ([]byte, error) {
	bucketName, objectPath, err := ParseURI(gcsURI)
	if err != nil {
		return nil, fmt.Errorf("Fetch: %w", err)
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: creating storage client: %w", err)
	}
	defer storageClient.Close()

	rc, err := storageClient.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading object %s/%s: %w", bucketName, objectPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading bytes: %w", err)
	}

	return data, nil
}

// ParseURI splits a gs:// URI into bucket and object path.
func ParseURI(gcsURI string) (bucket, object string, err error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", gcsURI)
	}

	trimmed := strings.TrimPrefix(gcsURI, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", gcsURI)
	}

	return parts[0], parts[1], nil
}
