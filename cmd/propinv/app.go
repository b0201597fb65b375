package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vbonduro/propinv/internal/blobstore"
	"github.com/vbonduro/propinv/internal/blobstore/local"
	s3store "github.com/vbonduro/propinv/internal/blobstore/s3"
	"github.com/vbonduro/propinv/internal/catalog"
	"github.com/vbonduro/propinv/internal/config"
	"github.com/vbonduro/propinv/internal/db"
	"github.com/vbonduro/propinv/internal/domain"
	"github.com/vbonduro/propinv/internal/export"
	"github.com/vbonduro/propinv/internal/imaging"
	"github.com/vbonduro/propinv/internal/metrics"
	"github.com/vbonduro/propinv/internal/service"
	"github.com/vbonduro/propinv/internal/store"
	"github.com/vbonduro/propinv/internal/store/badgerstore"
	"github.com/vbonduro/propinv/internal/store/pgstore"
)

// inventoryBackend is what every store backend offers the service, plus
// shutdown.
type inventoryBackend interface {
	List(ctx context.Context) ([]*domain.Inventory, error)
	Get(ctx context.Context, id string) (*domain.Inventory, error)
	Put(ctx context.Context, inv *domain.Inventory) error
	Close() error
}

type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	service  *service.InventoryService
	exporter *export.Exporter
	store    inventoryBackend
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}
	codec := store.NewCodec(cat)

	backend, err := openStore(ctx, cfg, codec, logger)
	if err != nil {
		return nil, err
	}

	blobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		closeBackend(backend, logger)
		return nil, err
	}

	m := metrics.New()
	svc := service.NewInventoryService(
		backend,
		imaging.New(cfg.JPEGQuality, nil),
		cat,
		m,
		logger,
		service.Options{
			PhotoMaxWidth:      cfg.PhotoMaxWidth,
			FrontImageMaxWidth: cfg.FrontImageMaxWidth,
		},
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		service:  svc,
		exporter: export.New(blobs, m, logger),
		store:    backend,
	}, nil
}

func (a *app) Close() {
	closeBackend(a.store, a.logger)
}

func closeBackend(b inventoryBackend, logger *slog.Logger) {
	if err := b.Close(); err != nil {
		logger.Error("failed to close store", "error", err)
	}
}

// sqliteBackend owns the database handle behind an InventoryStore.
type sqliteBackend struct {
	*store.InventoryStore
	close func() error
}

func (b sqliteBackend) Close() error { return b.close() }

func openStore(ctx context.Context, cfg *config.Config, codec *store.Codec, logger *slog.Logger) (inventoryBackend, error) {
	switch cfg.StoreBackend {
	case "badger":
		logger.Info("using badger store", "path", cfg.BadgerPath)
		s, err := badgerstore.Open(badgerstore.Config{
			Path:       cfg.BadgerPath,
			SyncWrites: true,
			Logger:     logger,
		}, codec)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		logger.Info("using postgres store")
		s, err := pgstore.Open(ctx, cfg.PostgresDSN, codec)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		logger.Info("using sqlite store", "path", cfg.DBPath)
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return sqliteBackend{InventoryStore: store.NewInventoryStore(database, codec), close: database.Close}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func openBlobStore(ctx context.Context, cfg *config.Config) (blobstore.Store, error) {
	switch cfg.BlobBackend {
	case "s3":
		s, err := s3store.New(ctx, s3store.Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PathStyle:       cfg.S3PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "local":
		s, err := local.New(cfg.ExportPath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}
