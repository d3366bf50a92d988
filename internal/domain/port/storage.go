package port

import (
	"context"
	"io"
)

// MediaStore is the keyed store for recordings and analysis artifacts.
// Lifecycle is caller managed: the API puts recordings on upload, the
// worker fetches them and puts the derived artifacts, teardown removes.
type MediaStore interface {
	PutRecording(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	DownloadRecording(ctx context.Context, key string, destPath string) error
	RemoveRecording(ctx context.Context, key string) error

	UploadReport(ctx context.Context, key string, r io.Reader, size int64) error
	UploadAnnotated(ctx context.Context, key string, srcPath string) error
}
