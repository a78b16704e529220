package photos

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mamed-gasimov/event-slideshow/internal/storage"
)

// FormField is the multipart field carrying the photo.
const FormField = "photo"

// Opener is implemented by stores that can serve their own bytes.
type Opener interface {
	Open(ctx context.Context, id string) (io.Reader, string, error)
}

type PhotoHandler struct {
	svc   service
	title string
	media Opener
}

// NewPhotoHandler builds the HTTP handlers. media may be nil when the store
// hands out locators the browser fetches directly.
func NewPhotoHandler(svc service, title string, media Opener) *PhotoHandler {
	return &PhotoHandler{svc: svc, title: title, media: media}
}

type pageData struct {
	Title  string
	Image  string
	Images []string
}

// Index GET / — sends guests to the upload form.
func (h *PhotoHandler) Index(c echo.Context) error {
	return c.Redirect(http.StatusFound, "/upload")
}

// UploadForm GET /upload
func (h *PhotoHandler) UploadForm(c echo.Context) error {
	return c.Render(http.StatusOK, "upload.html", pageData{Title: h.title})
}

// Upload POST /upload — stores the photo and redirects to its confirmation page.
func (h *PhotoHandler) Upload(c echo.Context) error {
	ctx := c.Request().Context()
	log := zerolog.Ctx(ctx)

	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "field 'photo' is required")
	}
	defer func() {
		if err := form.RemoveAll(); err != nil {
			log.Warn().Err(err).Msg("remove multipart temp files")
		}
	}()

	files := form.File[FormField]
	if len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "field 'photo' is required")
	}
	fileHeader := files[0]

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot open uploaded file")
	}
	defer src.Close()

	asset, err := h.svc.Upload(ctx, fileHeader.Filename, fileHeader.Header.Get(echo.HeaderContentType), fileHeader.Size, src)
	switch {
	case errors.Is(err, ErrMissingPayload):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("upload to store failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "could not upload the image")
	}

	return c.Redirect(http.StatusFound, "/slideshow?img="+url.QueryEscape(asset.URL))
}

// Slideshow GET /slideshow?img=<url> — confirmation page for one upload.
func (h *PhotoHandler) Slideshow(c echo.Context) error {
	img := c.QueryParam("img")
	if img == "" {
		return c.Redirect(http.StatusFound, "/upload")
	}
	return c.Render(http.StatusOK, "slideshow.html", pageData{Title: h.title, Image: img})
}

// Gallery GET /gallery — recent photos, each once. A failed listing renders an empty gallery.
func (h *PhotoHandler) Gallery(c echo.Context) error {
	return c.Render(http.StatusOK, "gallery.html", pageData{
		Title:  h.title,
		Images: h.recent(c),
	})
}

// Images GET /images — JSON array of recent locators.
func (h *PhotoHandler) Images(c echo.Context) error {
	return c.JSON(http.StatusOK, h.recent(c))
}

// Media GET /media/:id — serves bytes for stores that keep them in process.
func (h *PhotoHandler) Media(c echo.Context) error {
	if h.media == nil {
		return echo.ErrNotFound
	}

	r, contentType, err := h.media.Open(c.Request().Context(), c.Param("id"))
	if errors.Is(err, storage.ErrNotFound) {
		return echo.ErrNotFound
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}

	return c.Stream(http.StatusOK, contentType, r)
}

func (h *PhotoHandler) recent(c echo.Context) []string {
	urls, err := h.svc.Recent(c.Request().Context())
	if err != nil {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("list recent photos")
		return []string{}
	}
	return urls
}
