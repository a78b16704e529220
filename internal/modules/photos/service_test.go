package photos_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamed-gasimov/event-slideshow/internal/metrics"
	"github.com/mamed-gasimov/event-slideshow/internal/modules/photos"
	"github.com/mamed-gasimov/event-slideshow/internal/storage"
	"github.com/mamed-gasimov/event-slideshow/internal/storage/memory"
)

const pngHeader = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"

type countingReclaimer struct{ n int }

func (r *countingReclaimer) Trigger() { r.n++ }

// stubStore returns canned search results and can fail uploads.
type stubStore struct {
	assets    []storage.Asset
	searchErr error
	uploadErr error
}

func (s *stubStore) Upload(ctx context.Context, u storage.Upload) (*storage.Asset, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	return &storage.Asset{ID: "x", URL: "https://cdn/x.png", Collection: u.Collection}, nil
}

func (s *stubStore) Search(ctx context.Context, q storage.Query) ([]storage.Asset, error) {
	return s.assets, s.searchErr
}

func (s *stubStore) Destroy(ctx context.Context, id string) error { return nil }

func TestUpload_StoresImageAndRequestsReclaim(t *testing.T) {
	store := memory.New("/media")
	rec := &countingReclaimer{}
	reg := metrics.NewRegistry()
	svc := photos.NewPhotoService(store, "slideshow", 30, rec, reg)

	a, err := svc.Upload(context.Background(), "cake.png", "", int64(len(pngHeader)), strings.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "slideshow", a.Collection)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 1, rec.n)
	assert.EqualValues(t, 1, reg.Value(metrics.PhotosUploaded, nil))

	_, contentType, err := store.Open(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
}

func TestUpload_RejectsNonImage(t *testing.T) {
	store := memory.New("/media")
	rec := &countingReclaimer{}
	svc := photos.NewPhotoService(store, "slideshow", 30, rec, nil)

	_, err := svc.Upload(context.Background(), "notes.txt", "text/plain", 5, strings.NewReader("hello"))
	assert.ErrorIs(t, err, photos.ErrMissingPayload)

	_, err = svc.Upload(context.Background(), "empty.jpg", "image/jpeg", 0, strings.NewReader(""))
	assert.ErrorIs(t, err, photos.ErrMissingPayload)

	assert.Zero(t, store.Len())
	assert.Zero(t, rec.n)
}

func TestUpload_RejectsTextDeclaredAsImage(t *testing.T) {
	store := memory.New("/media")
	rec := &countingReclaimer{}
	svc := photos.NewPhotoService(store, "slideshow", 30, rec, nil)

	_, err := svc.Upload(context.Background(), "cake.jpg", "image/jpeg", 13, strings.NewReader("not a picture"))
	assert.ErrorIs(t, err, photos.ErrMissingPayload)
	assert.Contains(t, err.Error(), "text/plain")
	assert.Zero(t, store.Len())
	assert.Zero(t, rec.n)
}

func TestUpload_TrustsDeclaredImageTypeWhenSniffingCannotTell(t *testing.T) {
	store := memory.New("/media")
	svc := photos.NewPhotoService(store, "slideshow", 30, nil, nil)

	heic := "\x00\x00\x00\x18ftypheic"
	_, err := svc.Upload(context.Background(), "IMG_0001.HEIC", "image/heic", int64(len(heic)), strings.NewReader(heic))
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestServiceUpload_StoreFailure(t *testing.T) {
	rec := &countingReclaimer{}
	reg := metrics.NewRegistry()
	svc := photos.NewPhotoService(&stubStore{uploadErr: errors.New("quota exceeded")}, "slideshow", 30, rec, reg)

	_, err := svc.Upload(context.Background(), "cake.png", "image/png", 10, strings.NewReader(pngHeader))
	require.Error(t, err)
	assert.ErrorIs(t, err, photos.ErrUploadFailed)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Zero(t, rec.n)
	assert.EqualValues(t, 1, reg.Value(metrics.PhotosUploadFailed, nil))
}

func TestRecent_DedupsByLocator(t *testing.T) {
	store := &stubStore{assets: []storage.Asset{
		{ID: "1", URL: "https://cdn/a.png"},
		{ID: "2", URL: "https://cdn/b.png"},
		{ID: "3", URL: "https://cdn/a.png"},
		{ID: "4", URL: ""},
	}}
	svc := photos.NewPhotoService(store, "slideshow", 30, nil, nil)

	urls, err := svc.Recent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn/a.png", "https://cdn/b.png"}, urls)
}

func TestRecent_QueryFailed(t *testing.T) {
	svc := photos.NewPhotoService(&stubStore{searchErr: errors.New("timeout")}, "slideshow", 30, nil, nil)

	urls, err := svc.Recent(context.Background())
	assert.ErrorIs(t, err, storage.ErrQueryFailed)
	assert.Empty(t, urls)
}

func TestRecent_HidesAssetsPastRetention(t *testing.T) {
	now := time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)
	store := memory.New("/media")
	store.Put(storage.Asset{ID: "stale", Collection: "slideshow", CreatedAt: now.Add(-50 * time.Minute)})
	store.Put(storage.Asset{ID: "earlier", Collection: "slideshow", CreatedAt: now.Add(-4 * time.Minute)})
	store.Put(storage.Asset{ID: "fresh", Collection: "slideshow", CreatedAt: now.Add(-time.Minute)})

	svc := photos.NewPhotoService(store, "slideshow", 30, nil, nil).
		WithRetention(5 * time.Minute).
		WithClock(func() time.Time { return now })

	urls, err := svc.Recent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/media/fresh", "/media/earlier"}, urls)
}

func TestRecent_ZeroRetentionShowsEverything(t *testing.T) {
	store := memory.New("/media")
	store.Put(storage.Asset{ID: "old", Collection: "slideshow", CreatedAt: time.Now().Add(-24 * time.Hour)})

	urls, err := photos.NewPhotoService(store, "slideshow", 30, nil, nil).Recent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/media/old"}, urls)
}
