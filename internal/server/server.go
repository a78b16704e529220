package server

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/mamed-gasimov/event-slideshow/internal/metrics"
	appmw "github.com/mamed-gasimov/event-slideshow/internal/middleware"
	"github.com/mamed-gasimov/event-slideshow/internal/modules/photos"
	"github.com/mamed-gasimov/event-slideshow/internal/web"
)

// Options tunes the HTTP surface.
type Options struct {
	MaxUploadMB int
	Logger      zerolog.Logger
	Metrics     *metrics.Registry
}

func New(photoHandler *photos.PhotoHandler, opts Options) (*echo.Echo, error) {
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer

	e.Use(middleware.Recover())
	e.Use(appmw.RequestLogger(opts.Logger, opts.Metrics))
	e.Use(middleware.CORS())
	if opts.MaxUploadMB > 0 {
		e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", opts.MaxUploadMB)))
	}

	e.StaticFS("/public", web.Static())

	e.GET("/", photoHandler.Index)
	e.GET("/upload", photoHandler.UploadForm)
	e.POST("/upload", photoHandler.Upload)
	e.GET("/slideshow", photoHandler.Slideshow)
	e.GET("/gallery", photoHandler.Gallery)
	e.GET("/images", photoHandler.Images)
	e.GET("/media/:id", photoHandler.Media)

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if opts.Metrics != nil {
		e.GET("/metrics", opts.Metrics.EchoHandlerText)
		e.GET("/metrics.json", opts.Metrics.EchoHandlerJSON)
	}

	return e, nil
}
