// Package app builds the process-wide collaborators shared by the server and the CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mamed-gasimov/event-slideshow/internal/config"
	"github.com/mamed-gasimov/event-slideshow/internal/metrics"
	"github.com/mamed-gasimov/event-slideshow/internal/modules/reclaim"
	"github.com/mamed-gasimov/event-slideshow/internal/storage"
	cloudinarystorage "github.com/mamed-gasimov/event-slideshow/internal/storage/cloudinary"
	"github.com/mamed-gasimov/event-slideshow/internal/storage/memory"
	miniostorage "github.com/mamed-gasimov/event-slideshow/internal/storage/minio"
)

// MediaPath is where the in-memory backend serves its bytes.
const MediaPath = "/media"

// NewStore constructs the configured backend once; callers pass it on explicitly.
func NewStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendCloudinary:
		store, err := cloudinarystorage.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			return nil, fmt.Errorf("init cloudinary: %w", err)
		}
		return store, nil

	case config.BackendMinio:
		store, err := miniostorage.New(
			cfg.MinioEndpoint,
			cfg.MinioAccessKey,
			cfg.MinioSecretKey,
			cfg.MinioBucket,
			cfg.MinioUseSSL,
			cfg.MinioPublicURL,
		)
		if err != nil {
			return nil, fmt.Errorf("init minio: %w", err)
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("ensure bucket: %w", err)
		}
		return store, nil

	case config.BackendMemory:
		return memory.New(MediaPath), nil
	}

	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// NewPolicy binds the reclamation policy to the configured collection and window.
func NewPolicy(store storage.Store, cfg *config.Config, log zerolog.Logger, reg *metrics.Registry) *reclaim.Policy {
	return reclaim.NewPolicy(store, reclaim.Options{
		Collection: cfg.Collection,
		Retention:  cfg.Reclaim.Retention,
		PageSize:   cfg.Reclaim.PageSize,
		Order:      storage.Order(cfg.Reclaim.Order),
	}, log, reg)
}
