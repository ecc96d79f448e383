package bundle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/Veraticus/pfm-classifier/internal/common"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

var gcsRetry = common.RetryOptions{
	MaxAttempts:  4,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     10 * time.Second,
}

// classifyGCSError marks missing objects and client errors as permanent and
// turns throttling into a common.RateLimitError carrying Retry-After.
func classifyGCSError(err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return common.Permanent(err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return &common.RateLimitError{Err: err, RetryAfter: retryAfter(apiErr.Header)}
		case apiErr.Code >= 400 && apiErr.Code < 500:
			return common.Permanent(err)
		}
	}
	return err
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(h http.Header) time.Duration {
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// ParseGCSURI splits gs://bucket/object into its parts.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", common.InvalidInputf("not a GCS URI: %s", uri)
	}
	bucket, object, ok := strings.Cut(strings.TrimPrefix(uri, "gs://"), "/")
	if !ok || bucket == "" || object == "" {
		return "", "", common.InvalidInputf("GCS URI has no object path: %s", uri)
	}
	return bucket, object, nil
}

// GCS reads and writes bundles in Google Cloud Storage.
type GCS struct {
	client *storage.Client
}

// NewGCS creates a client. An empty credentialsFile uses Application
// Default Credentials.
func NewGCS(ctx context.Context, credentialsFile string) (*GCS, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCS{client: client}, nil
}

// Close releases the client.
func (g *GCS) Close() error {
	return g.client.Close()
}

// Upload copies the local file at localPath to uri, retrying transient
// failures.
func (g *GCS) Upload(ctx context.Context, localPath, uri string) error {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return err
	}

	return common.WithRetry(ctx, func() error {
		return g.upload(ctx, localPath, bucket, object)
	}, gcsRetry)
}

func (g *GCS) upload(ctx context.Context, localPath, bucket, object string) error {
	f, err := os.Open(localPath) //nolint:gosec // path is the bundle just written
	if err != nil {
		return common.Permanent(fmt.Errorf("open file %q: %w", localPath, err))
	}
	defer func() { _ = f.Close() }()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := g.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return classifyGCSError(fmt.Errorf("copy file to GCS writer: %w", err))
	}
	if err := w.Close(); err != nil {
		return classifyGCSError(fmt.Errorf("finalize upload: %w", err))
	}
	return nil
}

// Fetch downloads the object at uri, retrying transient failures.
func (g *GCS) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return nil, err
	}

	var data []byte
	err = common.WithRetry(ctx, func() error {
		rc, err := g.client.Bucket(bucket).Object(object).NewReader(ctx)
		if err != nil {
			return classifyGCSError(fmt.Errorf("reading object %s/%s: %w", bucket, object, err))
		}
		defer func() { _ = rc.Close() }()

		data, err = io.ReadAll(rc)
		if err != nil {
			return classifyGCSError(fmt.Errorf("reading bytes: %w", err))
		}
		return nil
	}, gcsRetry)
	if err != nil {
		return nil, err
	}
	return data, nil
}
