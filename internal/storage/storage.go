package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrNotFound is returned by Destroy when the asset is already gone.
	ErrNotFound = errors.New("asset not found")
	// ErrQueryFailed wraps a failed Search, as seen by callers that list the store.
	ErrQueryFailed = errors.New("query failed")
)

// Order is the creation-time ordering of a search.
type Order string

const (
	Ascending  Order = "asc"
	Descending Order = "desc"
)

// Asset is an image held by the remote media store.
type Asset struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Collection string    `json:"collection"`
	CreatedAt  time.Time `json:"created_at"`
}

// Upload describes one payload to store.
type Upload struct {
	Collection  string
	Filename    string
	ContentType string
	Size        int64 // -1 if unknown
	Body        io.Reader
}

// Query selects assets of one collection.
type Query struct {
	Collection string
	Order      Order
	Limit      int
}

// Store defines an abstraction over remote media backends (Cloudinary / MinIO / memory).
// The store is the only source of truth for assets.
type Store interface {
	// Upload stores the payload under the collection and returns the new asset.
	Upload(ctx context.Context, u Upload) (*Asset, error)

	// Search returns up to q.Limit image assets of q.Collection ordered by creation time.
	Search(ctx context.Context, q Query) ([]Asset, error)

	// Destroy removes the asset by id. Backends that can tell return ErrNotFound
	// for an asset that no longer exists.
	Destroy(ctx context.Context, id string) error
}
