package export

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob" // gs://
	_ "gocloud.dev/blob/s3blob"  // s3://
)

// OpenBucket opens the export destination. A URL with a scheme
// (file://, s3://, gs://) goes through gocloud.dev's URL mux; anything else
// is a local directory, created when missing.
func OpenBucket(ctx context.Context, url string) (*blob.Bucket, error) {
	if strings.Contains(url, "://") {
		b, err := blob.OpenBucket(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("open bucket %s: %w", url, err)
		}
		return b, nil
	}
	if err := os.MkdirAll(url, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory %s: %w", url, err)
	}
	b, err := fileblob.OpenBucket(url, &fileblob.Options{CreateDir: true})
	if err != nil {
		return nil, fmt.Errorf("open directory bucket %s: %w", url, err)
	}
	return b, nil
}
