package cloudinary

import (
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/admin/search"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/mamed-gasimov/event-slideshow/internal/storage"
)

// Cloudinary caps a single search page at 500 resources.
const maxSearchResults = 500

var _ storage.Store = (*Client)(nil)

// Client implements storage.Store on top of the Cloudinary upload and admin APIs.
// A collection is a Cloudinary folder; the asset id is the public id.
type Client struct {
	cld *cloudinary.Cloudinary
}

// New creates a Cloudinary client from account credentials.
func New(cloudName, apiKey, apiSecret string) (*Client, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary new client: %w", err)
	}
	return &Client{cld: cld}, nil
}

// Upload sends the payload to the collection folder.
func (c *Client) Upload(ctx context.Context, u storage.Upload) (*storage.Asset, error) {
	res, err := c.cld.Upload.Upload(ctx, u.Body, uploader.UploadParams{
		Folder: u.Collection,
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}

	return &storage.Asset{
		ID:         res.PublicID,
		URL:        res.SecureURL,
		Collection: u.Collection,
		CreatedAt:  res.CreatedAt,
	}, nil
}

// Search runs an admin search restricted to image resources of the collection folder.
func (c *Client) Search(ctx context.Context, q storage.Query) ([]storage.Asset, error) {
	res, err := c.cld.Admin.Search(ctx, BuildQuery(q))
	if err != nil {
		return nil, fmt.Errorf("cloudinary search: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary search: %s", res.Error.Message)
	}

	assets := make([]storage.Asset, 0, len(res.Assets))
	for _, a := range res.Assets {
		assets = append(assets, storage.Asset{
			ID:         a.PublicID,
			URL:        a.SecureURL,
			Collection: q.Collection,
			CreatedAt:  a.CreatedAt,
		})
	}
	return assets, nil
}

// Destroy deletes the asset by public id. Cloudinary answers "not found"
// for ids that are already gone.
func (c *Client) Destroy(ctx context.Context, id string) error {
	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: id})
	if err != nil {
		return fmt.Errorf("cloudinary destroy %q: %w", id, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy %q: %s", id, res.Error.Message)
	}
	return destroyResult(id, res.Result)
}

func destroyResult(id, result string) error {
	switch result {
	case "ok":
		return nil
	case "not found":
		return fmt.Errorf("cloudinary destroy %q: %w", id, storage.ErrNotFound)
	default:
		return fmt.Errorf("cloudinary destroy %q: unexpected result %q", id, result)
	}
}

// BuildQuery translates a storage query into a Cloudinary search expression.
func BuildQuery(q storage.Query) search.Query {
	dir := search.Ascending
	if q.Order == storage.Descending {
		dir = search.Descending
	}

	limit := q.Limit
	if limit <= 0 || limit > maxSearchResults {
		limit = maxSearchResults
	}

	return search.Query{
		Expression: Expression(q.Collection),
		SortBy:     []search.SortByField{{"created_at": dir}},
		MaxResults: limit,
	}
}

// Expression returns the search expression for image resources in a folder.
func Expression(collection string) string {
	return fmt.Sprintf("folder:%q AND resource_type:image", collection)
}
