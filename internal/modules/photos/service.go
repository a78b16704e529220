package photos

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mamed-gasimov/event-slideshow/internal/metrics"
	"github.com/mamed-gasimov/event-slideshow/internal/storage"
)

const (
	// sniffLen is how many bytes content detection looks at.
	sniffLen = 512
	// unknownContentType is what detection reports for bytes it cannot classify.
	unknownContentType = "application/octet-stream"
)

var (
	// ErrMissingPayload means the request carried no image.
	ErrMissingPayload = errors.New("no image received")
	// ErrUploadFailed means the remote store rejected the upload or was unreachable.
	ErrUploadFailed = errors.New("upload failed")
)

// Reclaimer accepts a request for a background reclamation pass.
type Reclaimer interface {
	Trigger()
}

type service interface {
	Upload(ctx context.Context, filename, contentType string, size int64, body io.Reader) (*storage.Asset, error)
	Recent(ctx context.Context) ([]string, error)
}

var _ service = (*PhotoService)(nil)

type PhotoService struct {
	store        storage.Store
	collection   string
	galleryLimit int
	reclaimer    Reclaimer
	metrics      *metrics.Registry
	retention    time.Duration
	now          func() time.Time
}

// NewPhotoService wires the upload intake and gallery reads to a store.
// reclaimer may be nil, in which case uploads do not request a sweep.
func NewPhotoService(store storage.Store, collection string, galleryLimit int, reclaimer Reclaimer, reg *metrics.Registry) *PhotoService {
	return &PhotoService{
		store:        store,
		collection:   collection,
		galleryLimit: galleryLimit,
		reclaimer:    reclaimer,
		metrics:      reg,
		now:          time.Now,
	}
}

// WithRetention hides assets older than d from Recent, matching the window the
// reclamation policy deletes on. Zero shows everything the store returns.
func (s *PhotoService) WithRetention(d time.Duration) *PhotoService {
	s.retention = d
	return s
}

// WithClock overrides time.Now; tests only.
func (s *PhotoService) WithClock(now func() time.Time) *PhotoService {
	s.now = now
	return s
}

// Upload checks that body is an image and forwards it to the store under the
// collection. On success a reclamation pass is requested without waiting for it.
func (s *PhotoService) Upload(ctx context.Context, filename, contentType string, size int64, body io.Reader) (*storage.Asset, error) {
	if body == nil {
		return nil, ErrMissingPayload
	}

	br := bufio.NewReaderSize(body, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("%w: read payload: %v", ErrMissingPayload, err)
	}
	if len(head) == 0 {
		return nil, ErrMissingPayload
	}

	// The declared type only counts when detection has no opinion, which is the
	// case for formats it does not know (HEIC, AVIF).
	sniffed := http.DetectContentType(head)
	switch {
	case isImage(sniffed):
		contentType = sniffed
	case sniffed == unknownContentType && isImage(contentType):
	default:
		return nil, fmt.Errorf("%w: payload is %s", ErrMissingPayload, sniffed)
	}

	asset, err := s.store.Upload(ctx, storage.Upload{
		Collection:  s.collection,
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		Body:        br,
	})
	if err != nil {
		s.metrics.Inc(ctx, metrics.PhotosUploadFailed, nil, 1)
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	s.metrics.Inc(ctx, metrics.PhotosUploaded, nil, 1)
	zerolog.Ctx(ctx).Info().
		Str("asset_id", asset.ID).
		Str("url", asset.URL).
		Msg("photo uploaded")

	if s.reclaimer != nil {
		s.reclaimer.Trigger()
	}

	return asset, nil
}

// Recent returns locators of the newest assets still inside the retention
// window, each locator once, newest first.
func (s *PhotoService) Recent(ctx context.Context) ([]string, error) {
	assets, err := s.store.Search(ctx, storage.Query{
		Collection: s.collection,
		Order:      storage.Descending,
		Limit:      s.galleryLimit,
	})
	if err != nil {
		return []string{}, fmt.Errorf("%w: %w", storage.ErrQueryFailed, err)
	}

	return dedupURLs(s.live(assets)), nil
}

// live drops assets the next reclamation pass would delete.
func (s *PhotoService) live(assets []storage.Asset) []storage.Asset {
	if s.retention <= 0 {
		return assets
	}
	cutoff := s.now().Add(-s.retention)
	kept := assets[:0:0]
	for _, a := range assets {
		if a.CreatedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

func dedupURLs(assets []storage.Asset) []string {
	seen := make(map[string]struct{}, len(assets))
	urls := make([]string, 0, len(assets))
	for _, a := range assets {
		if a.URL == "" {
			continue
		}
		if _, ok := seen[a.URL]; ok {
			continue
		}
		seen[a.URL] = struct{}{}
		urls = append(urls, a.URL)
	}
	return urls
}

func isImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "image/")
}
