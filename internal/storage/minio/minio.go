package minio

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mamed-gasimov/event-slideshow/internal/storage"
)

// compile-time check that Client satisfies the Store interface.
var _ storage.Store = (*Client)(nil)

// Client wraps the MinIO SDK and implements storage.Store.
// A collection maps to a key prefix inside the bucket; the asset id is the object key.
type Client struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// New creates a new MinIO storage client. publicURL is the base under which
// the bucket is served to browsers.
func New(endpoint, accessKey, secretKey, bucket string, useSSL bool, publicURL string) (*Client, error) {
	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new client: %w", err)
	}

	if publicURL == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + endpoint
	}

	return &Client{
		client:    mc,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// EnsureBucket creates the bucket if it does not already exist.
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}

	if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("make bucket: %w", err)
	}
	return nil
}

// Upload streams data from the reader directly into MinIO (no buffering to disk).
func (c *Client) Upload(ctx context.Context, u storage.Upload) (*storage.Asset, error) {
	objectKey := ObjectKey(u.Collection, u.Filename, time.Now())

	info, err := c.client.PutObject(ctx, c.bucket, objectKey, u.Body, u.Size, minio.PutObjectOptions{
		ContentType: u.ContentType,
	})
	if err != nil {
		return nil, fmt.Errorf("put object %q: %w", objectKey, err)
	}

	created := info.LastModified
	if created.IsZero() {
		created = time.Now()
	}

	return &storage.Asset{
		ID:         objectKey,
		URL:        c.locator(objectKey),
		Collection: u.Collection,
		CreatedAt:  created,
	}, nil
}

// Search lists the collection prefix and orders by LastModified.
// S3 listing is lexical, so the whole prefix is read before the limit applies.
func (c *Client) Search(ctx context.Context, q storage.Query) ([]storage.Asset, error) {
	opts := minio.ListObjectsOptions{
		Prefix:    strings.TrimSuffix(q.Collection, "/") + "/",
		Recursive: true,
	}

	var assets []storage.Asset
	for obj := range c.client.ListObjects(ctx, c.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		assets = append(assets, storage.Asset{
			ID:         obj.Key,
			URL:        c.locator(obj.Key),
			Collection: q.Collection,
			CreatedAt:  obj.LastModified,
		})
	}

	sort.SliceStable(assets, func(i, j int) bool {
		if q.Order == storage.Descending {
			return assets[i].CreatedAt.After(assets[j].CreatedAt)
		}
		return assets[i].CreatedAt.Before(assets[j].CreatedAt)
	})

	if q.Limit > 0 && len(assets) > q.Limit {
		assets = assets[:q.Limit]
	}
	return assets, nil
}

// Destroy removes an object from the bucket by key. S3 deletes are
// idempotent, so a missing key is not reported.
func (c *Client) Destroy(ctx context.Context, id string) error {
	err := c.client.RemoveObject(ctx, c.bucket, id, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("remove object %q: %w", id, err)
	}
	return nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}

func (c *Client) locator(objectKey string) string {
	return c.publicURL + "/" + path.Join(c.bucket, objectKey)
}

// ObjectKey builds "<collection>/<yyyy/mm/dd>/<uuid>_<filename>".
func ObjectKey(collection, filename string, now time.Time) string {
	name := path.Base(filename)
	if name == "." || name == "/" || name == "" {
		name = "photo"
	}
	return fmt.Sprintf("%s/%s/%s_%s",
		strings.Trim(collection, "/"),
		now.Format("2006/01/02"),
		uuid.NewString(),
		name,
	)
}
