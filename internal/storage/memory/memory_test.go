package memory_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamed-gasimov/event-slideshow/internal/storage"
	"github.com/mamed-gasimov/event-slideshow/internal/storage/memory"
)

func TestUploadAndOpen(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := memory.New("/media").WithClock(func() time.Time { return created })

	a, err := s.Upload(ctx, storage.Upload{
		Collection:  "slideshow",
		Filename:    "cake.jpg",
		ContentType: "image/jpeg",
		Size:        4,
		Body:        strings.NewReader("jpeg"),
	})
	require.NoError(t, err)
	assert.Equal(t, "/media/"+a.ID, a.URL)
	assert.Equal(t, "slideshow", a.Collection)
	assert.Equal(t, created, a.CreatedAt)

	r, contentType, err := s.Open(ctx, a.ID)
	require.NoError(t, err)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(b))
	assert.Equal(t, "image/jpeg", contentType)
}

func TestUploadEmpty(t *testing.T) {
	s := memory.New("/media")
	_, err := s.Upload(context.Background(), storage.Upload{Collection: "slideshow", Body: strings.NewReader("")})
	require.Error(t, err)
	assert.Zero(t, s.Len())
}

func TestSearchOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := memory.New("/media")
	s.Put(storage.Asset{ID: "2", Collection: "slideshow", CreatedAt: base.Add(2 * time.Minute)})
	s.Put(storage.Asset{ID: "1", Collection: "slideshow", CreatedAt: base.Add(time.Minute)})
	s.Put(storage.Asset{ID: "3", Collection: "slideshow", CreatedAt: base.Add(3 * time.Minute)})
	s.Put(storage.Asset{ID: "x", Collection: "other", CreatedAt: base})

	asc, err := s.Search(ctx, storage.Query{Collection: "slideshow", Order: storage.Ascending})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids(asc))

	desc, err := s.Search(ctx, storage.Query{Collection: "slideshow", Order: storage.Descending, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2"}, ids(desc))
}

func TestDestroy(t *testing.T) {
	ctx := context.Background()
	s := memory.New("/media")
	s.Put(storage.Asset{ID: "a", Collection: "slideshow"})

	require.NoError(t, s.Destroy(ctx, "a"))
	assert.ErrorIs(t, s.Destroy(ctx, "a"), storage.ErrNotFound)

	_, _, err := s.Open(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func ids(assets []storage.Asset) []string {
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		out = append(out, a.ID)
	}
	return out
}
