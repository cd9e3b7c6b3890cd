// Package gcs is the Cloud Storage backend for statements uploaded as gs:// objects.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	gcstorage "cloud.google.com/go/storage"
	"github.com/dvloznov/budgetrak/internal/apperr"
	"github.com/dvloznov/budgetrak/internal/logger"
	"github.com/dvloznov/budgetrak/internal/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const uploadTimeout = 2 * time.Minute

// Client reads statements from one bucket and uploads local files.
type Client struct {
	client *gcstorage.Client
	bucket string
}

var _ storage.Source = (*Client)(nil)

// New creates a Cloud Storage client. bucket is the default for List and
// Upload; Download takes full gs:// URIs.
func New(ctx context.Context, bucket string, opts ...option.ClientOption) (*Client, error) {
	client, err := gcstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, apperr.Storage("gcs.New", fmt.Errorf("create storage client: %w", err))
	}
	return &Client{client: client, bucket: bucket}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// ParseURI splits gs://bucket/object into its parts.
func ParseURI(uri string) (bucket, object string, err error) {
	if !storage.IsGCSURI(uri) {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// URI formats a gs:// URI.
func URI(bucket, object string) string {
	return "gs://" + bucket + "/" + object
}

// Download returns the bytes of a gs:// object.
func (c *Client) Download(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return nil, apperr.Invalid("gcs.Download", err)
	}

	rc, err := c.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, classify("gcs.Download", fmt.Errorf("reading object %s/%s: %w", bucket, object, err))
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, apperr.Storage("gcs.Download", fmt.Errorf("reading bytes: %w", err))
	}
	return data, nil
}

// List returns PDF objects in the default bucket. FolderID is used as an
// object prefix and Name as a case-insensitive substring of the base name.
// Results are newest first.
func (c *Client) List(ctx context.Context, q storage.Query) ([]storage.File, error) {
	if c.bucket == "" {
		return nil, apperr.Config("gcs.List", errors.New("GCS_BUCKET is not set"))
	}

	it := c.client.Bucket(c.bucket).Objects(ctx, &gcstorage.Query{Prefix: q.FolderID})
	var files []storage.File
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, classify("gcs.List", err)
		}
		if f, ok := matchObject(attrs, q); ok {
			files = append(files, f)
		}
	}

	sortNewestFirst(files)
	if len(files) > q.Limit() {
		files = files[:q.Limit()]
	}
	return files, nil
}

// Upload copies a local file into the default bucket and returns its URI.
// An empty object name uses the file's base name.
func (c *Client) Upload(ctx context.Context, object, filePath string) (string, error) {
	if c.bucket == "" {
		return "", apperr.Config("gcs.Upload", errors.New("GCS_BUCKET is not set"))
	}
	if object == "" {
		object = path.Base(strings.ReplaceAll(filePath, "\\", "/"))
	}

	f, err := os.Open(filePath)
	if err != nil {
		return "", apperr.Invalid("gcs.Upload", fmt.Errorf("open file %q: %w", filePath, err))
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := c.client.Bucket(c.bucket).Object(object).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", apperr.Storage("gcs.Upload", fmt.Errorf("copy file to GCS writer: %w", err))
	}
	if err := w.Close(); err != nil {
		return "", classify("gcs.Upload", fmt.Errorf("finalize upload: %w", err))
	}

	uri := URI(c.bucket, object)
	log := logger.FromContext(ctx)
	log.Info().Str("file", filePath).Str("uri", uri).Msg("Uploaded statement")
	return uri, nil
}

func matchObject(attrs *gcstorage.ObjectAttrs, q storage.Query) (storage.File, bool) {
	name := path.Base(attrs.Name)
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") && attrs.ContentType != "application/pdf" {
		return storage.File{}, false
	}
	if q.Name != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(q.Name)) {
		return storage.File{}, false
	}
	return storage.File{
		ID:           URI(attrs.Bucket, attrs.Name),
		Name:         name,
		MIMEType:     attrs.ContentType,
		ModifiedTime: attrs.Updated,
		Size:         attrs.Size,
	}, true
}

func sortNewestFirst(files []storage.File) {
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].ModifiedTime.After(files[j].ModifiedTime)
	})
}

func classify(op string, err error) error {
	if errors.Is(err, gcstorage.ErrObjectNotExist) || errors.Is(err, gcstorage.ErrBucketNotExist) {
		return apperr.Storage(op, err)
	}
	return apperr.FromGoogle(op, err)
}
