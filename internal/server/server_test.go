package server_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamed-gasimov/event-slideshow/internal/metrics"
	"github.com/mamed-gasimov/event-slideshow/internal/modules/photos"
	"github.com/mamed-gasimov/event-slideshow/internal/server"
	"github.com/mamed-gasimov/event-slideshow/internal/storage/memory"
)

func newServer(t *testing.T, maxMB int) (*echo.Echo, *memory.Store, *metrics.Registry) {
	t.Helper()
	store := memory.New("/media")
	reg := metrics.NewRegistry()
	h := photos.NewPhotoHandler(photos.NewPhotoService(store, "slideshow", 30, nil, reg), "Party", store)

	e, err := server.New(h, server.Options{MaxUploadMB: maxMB, Logger: zerolog.Nop(), Metrics: reg})
	require.NoError(t, err)
	return e, store, reg
}

func TestRoutes(t *testing.T) {
	e, _, _ := newServer(t, 20)

	cases := []struct {
		path string
		code int
	}{
		{"/", http.StatusFound},
		{"/upload", http.StatusOK},
		{"/slideshow", http.StatusFound},
		{"/gallery", http.StatusOK},
		{"/images", http.StatusOK},
		{"/health", http.StatusOK},
		{"/public/style.css", http.StatusOK},
		{"/public/upload.svg", http.StatusOK},
		{"/media/unknown", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestUploadCountsAndMetricsEndpoint(t *testing.T) {
	e, store, reg := newServer(t, 20)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("photo", "cake.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n0000"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.Equal(t, 1, store.Len())
	assert.EqualValues(t, 1, reg.Value(metrics.PhotosUploaded, nil))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "photos_uploaded_total 1")
	assert.Contains(t, rec.Body.String(), "http_requests_total{method=POST,path=/upload,status=3xx} 1")
}

func TestBodyLimit(t *testing.T) {
	e, store, _ := newServer(t, 1)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("photo", "huge.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n" + strings.Repeat("0", 2<<20)))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Zero(t, store.Len())
}
