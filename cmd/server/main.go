package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mamed-gasimov/event-slideshow/internal/app"
	"github.com/mamed-gasimov/event-slideshow/internal/config"
	"github.com/mamed-gasimov/event-slideshow/internal/logging"
	"github.com/mamed-gasimov/event-slideshow/internal/metrics"
	"github.com/mamed-gasimov/event-slideshow/internal/modules/photos"
	"github.com/mamed-gasimov/event-slideshow/internal/modules/reclaim"
	"github.com/mamed-gasimov/event-slideshow/internal/qr"
	"github.com/mamed-gasimov/event-slideshow/internal/server"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)
	reg := metrics.NewRegistry()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Media store ----------------------------------------------------------
	store, err := app.NewStore(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info().Str("backend", cfg.StoreBackend).Str("collection", cfg.Collection).Msg("media store ready")

	// --- Reclamation ----------------------------------------------------------
	policy := app.NewPolicy(store, cfg, logger, reg)
	sweeper := reclaim.NewSweeper(policy, cfg.Reclaim.Interval, cfg.Reclaim.Timeout, logger)

	var reclaimer photos.Reclaimer
	if cfg.Reclaim.OnUpload {
		reclaimer = sweeper
	}

	// --- Layers ---------------------------------------------------------------
	photoService := photos.NewPhotoService(store, cfg.Collection, cfg.GalleryLimit, reclaimer, reg).
		WithRetention(cfg.Reclaim.Retention)
	media, _ := store.(photos.Opener)
	photoHandler := photos.NewPhotoHandler(photoService, cfg.EventTitle, media)

	e, err := server.New(photoHandler, server.Options{
		MaxUploadMB: cfg.MaxUploadMB,
		Logger:      logger,
		Metrics:     reg,
	})
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	g.Go(func() error {
		addr := ":" + cfg.ServerPort
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down …")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	announce(cfg)

	return g.Wait()
}

// announce prints where guests upload and where the gallery lives.
func announce(cfg *config.Config) {
	host := qr.LocalIP()
	uploadURL := cfg.UploadURL(host)

	fmt.Println("Slideshow server running")
	fmt.Println("- Upload: ", uploadURL)
	fmt.Println("- Gallery:", cfg.GalleryURL(host))

	if cfg.PrintQR && cfg.PublicURL == "" {
		qr.Print(os.Stdout, uploadURL)
	}
}
