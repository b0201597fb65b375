// Package export writes an inventory's vault photos and report to blob
// storage so they can be printed or archived outside the service.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vbonduro/propinv/internal/blobstore"
	"github.com/vbonduro/propinv/internal/domain"
	"github.com/vbonduro/propinv/internal/imaging"
	"github.com/vbonduro/propinv/internal/metrics"
	"github.com/vbonduro/propinv/internal/report"
)

// DefaultConcurrency bounds parallel photo uploads.
const DefaultConcurrency = 4

// Manifest lists what an export wrote.
type Manifest struct {
	InventoryID string    `json:"inventoryId"`
	ExportedAt  time.Time `json:"exportedAt"`
	ReportKey   string    `json:"reportKey"`
	FrontImage  string    `json:"frontImageKey,omitempty"`
	PhotoKeys   []string  `json:"photoKeys"`
}

type Exporter struct {
	blobs       blobstore.Store
	metrics     *metrics.Metrics
	logger      *slog.Logger
	concurrency int
	now         func() time.Time
}

func New(blobs blobstore.Store, m *metrics.Metrics, logger *slog.Logger) *Exporter {
	return &Exporter{
		blobs:       blobs,
		metrics:     m,
		logger:      logger,
		concurrency: DefaultConcurrency,
		now:         domain.Now,
	}
}

// PhotoKey is the object key of the vault photo with the given ordinal.
func PhotoKey(inventoryID string, ordinal int, ext string) string {
	return path.Join(inventoryID, "photos", fmt.Sprintf("%03d.%s", ordinal, ext))
}

func ReportKey(inventoryID string) string {
	return path.Join(inventoryID, "report.json")
}

func FrontImageKey(inventoryID, ext string) string {
	return path.Join(inventoryID, "front."+ext)
}

func ManifestKey(inventoryID string) string {
	return path.Join(inventoryID, "manifest.json")
}

// imageType returns the content type and extension for stored image bytes.
// Images the pipeline could not decode were kept in their upload encoding.
func imageType(data []byte) (string, string) {
	mime, ok := imaging.Sniff(data)
	if !ok {
		return "application/octet-stream", "bin"
	}
	return mime, imaging.Extension(mime)
}

// Export uploads every vault photo under its ordinal, then the front image,
// the report and finally the manifest. The manifest is written last so its
// presence marks a complete export.
func (e *Exporter) Export(ctx context.Context, inv *domain.Inventory, rep *report.Report) (*Manifest, error) {
	m, err := e.export(ctx, inv, rep)
	photos := 0
	if m != nil {
		photos = len(m.PhotoKeys)
	}
	e.metrics.ObserveExport(photos, err)
	if err != nil {
		e.logger.Error("export failed", "inventory_id", inv.ID, "error", err)
		return nil, err
	}
	e.logger.Info("export complete", "inventory_id", inv.ID, "photos", photos)
	return m, nil
}

func (e *Exporter) export(ctx context.Context, inv *domain.Inventory, rep *report.Report) (*Manifest, error) {
	if !rep.Ready {
		return nil, fmt.Errorf("report for %q is not ready: %w", inv.ID, domain.ErrPrecondition)
	}

	entries := rep.Entries()
	keys := make([]string, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, entry := range entries {
		contentType, ext := imageType(entry.Photo.Image)
		key := PhotoKey(inv.ID, entry.Ordinal, ext)
		keys[i] = key
		g.Go(func() error {
			if err := e.blobs.Put(gctx, key, contentType, bytes.NewReader(entry.Photo.Image)); err != nil {
				return fmt.Errorf("failed to export photo %d: %w", entry.Ordinal, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := &Manifest{
		InventoryID: inv.ID,
		ExportedAt:  e.now(),
		ReportKey:   ReportKey(inv.ID),
		PhotoKeys:   keys,
	}

	if len(inv.FrontImage) > 0 {
		contentType, ext := imageType(inv.FrontImage)
		m.FrontImage = FrontImageKey(inv.ID, ext)
		if err := e.blobs.Put(ctx, m.FrontImage, contentType, bytes.NewReader(inv.FrontImage)); err != nil {
			return nil, fmt.Errorf("failed to export front image: %w", err)
		}
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	if err := e.blobs.Put(ctx, m.ReportKey, "application/json", bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to export report: %w", err)
	}

	data, err = json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := e.blobs.Put(ctx, ManifestKey(inv.ID), "application/json", bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to export manifest: %w", err)
	}
	return m, nil
}

// LastExport reads back the manifest of the latest complete export of an
// inventory. It fails with domain.ErrNotFound when none has finished.
func (e *Exporter) LastExport(ctx context.Context, inventoryID string) (*Manifest, error) {
	rc, _, err := e.blobs.Get(ctx, ManifestKey(inventoryID))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("no export of inventory %q: %w", inventoryID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read export manifest: %w", err)
	}
	defer func() {
		if err := rc.Close(); err != nil {
			e.logger.Warn("failed to close manifest", "inventory_id", inventoryID, "error", err)
		}
	}()

	var m Manifest
	if err := json.NewDecoder(rc).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode export manifest: %w", err)
	}
	return &m, nil
}
