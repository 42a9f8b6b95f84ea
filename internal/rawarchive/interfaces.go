package rawarchive

import (
	"context"
)

// ArchiveService abstracts the raw page archive so pollers can be tested
// without a GCS bucket.
type ArchiveService interface {
	ArchivePage(ctx context.Context, objectName string, body []byte) error
	Fetch(ctx context.Context, gcsURI string) ([]byte, error)
}

// GCSArchiveService is the concrete implementation of ArchiveService
// that writes to a Google Cloud Storage bucket.
type GCSArchiveService struct {
	bucket string
}

// NewGCSArchiveService creates a new instance of GCSArchiveService
// writing to the given bucket.
func NewGCSArchiveService(bucket string) *GCSArchiveService {
	return &GCSArchiveService{bucket: bucket}
}

// ArchivePage delegates to the existing ArchivePage function.
func (s *GCSArchiveService) ArchivePage(ctx context.Context, objectName string, body []byte) error {
	return ArchivePage(ctx, s.bucket, objectName, body)
}

// Fetch delegates to the existing Fetch function.
func (s *GCSArchiveService) Fetch(ctx context.Context, gcsURI string) ([]byte, error) {
	return Fetch(ctx, gcsURI)
}

// URI returns the gs:// URI for an object name in this archive's bucket.
func (s *GCSArchiveService) URI(objectName string) string {
	return "gs://" + s.bucket + "/" + objectName
}

var _ ArchiveService = (*GCSArchiveService)(nil)
