package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/vbonduro/propinv/internal/catalog"
	"github.com/vbonduro/propinv/internal/domain"
	"github.com/vbonduro/propinv/internal/imaging"
	"github.com/vbonduro/propinv/internal/metrics"
	"github.com/vbonduro/propinv/internal/report"
	"github.com/vbonduro/propinv/internal/vault"
)

// inventoryRepository is the store contract InventoryService requires. Get
// returns nil, nil when no snapshot exists.
type inventoryRepository interface {
	List(ctx context.Context) ([]*domain.Inventory, error)
	Get(ctx context.Context, id string) (*domain.Inventory, error)
	Put(ctx context.Context, inv *domain.Inventory) error
}

// imageProcessor is the subset of imaging.Pipeline InventoryService requires.
type imageProcessor interface {
	Process(ctx context.Context, raw []byte, maxWidth int) ([]byte, error)
}

type Options struct {
	PhotoMaxWidth      int
	FrontImageMaxWidth int
	// Now and NewID default to domain.Now and domain.NewID.
	Now   func() time.Time
	NewID func() string
}

// InventoryService loads a snapshot, applies one domain mutation and persists
// the result. Mutations are serialised; image processing happens before the
// write lock is taken.
type InventoryService struct {
	store   inventoryRepository
	images  imageProcessor
	catalog *catalog.Catalog
	metrics *metrics.Metrics
	logger  *slog.Logger

	photoWidth int
	frontWidth int
	now        func() time.Time
	newID      func() string

	mu sync.Mutex
}

func NewInventoryService(
	store inventoryRepository,
	images imageProcessor,
	cat *catalog.Catalog,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts Options,
) *InventoryService {
	s := &InventoryService{
		store:      store,
		images:     images,
		catalog:    cat,
		metrics:    m,
		logger:     logger,
		photoWidth: opts.PhotoMaxWidth,
		frontWidth: opts.FrontImageMaxWidth,
		now:        opts.Now,
		newID:      opts.NewID,
	}
	if s.photoWidth <= 0 {
		s.photoWidth = imaging.DefaultPhotoWidth
	}
	if s.frontWidth <= 0 {
		s.frontWidth = imaging.DefaultFrontImageWidth
	}
	if s.now == nil {
		s.now = domain.Now
	}
	if s.newID == nil {
		s.newID = domain.NewID
	}
	return s
}

func (s *InventoryService) Catalog() *catalog.Catalog {
	return s.catalog
}

// CreateInventory expands the catalog into a new DRAFT inventory and saves it.
func (s *InventoryService) CreateInventory(ctx context.Context) (*domain.Inventory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv := domain.NewInventory(s.catalog, s.newID, s.now())
	if err := s.put(ctx, inv); err != nil {
		s.metrics.ObserveMutation("create", err)
		return nil, err
	}
	s.metrics.ObserveMutation("create", nil)
	s.logger.Info("inventory created", "inventory_id", inv.ID, "rooms", len(inv.Rooms))
	return inv, nil
}

// ListInventories returns every inventory, most recently updated first.
func (s *InventoryService) ListInventories(ctx context.Context) ([]*domain.Inventory, error) {
	inventories, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	slices.SortStableFunc(inventories, func(a, b *domain.Inventory) int {
		return b.DateUpdated.Compare(a.DateUpdated)
	})
	return inventories, nil
}

func (s *InventoryService) GetInventory(ctx context.Context, id string) (*domain.Inventory, error) {
	return s.load(ctx, id)
}

func (s *InventoryService) UpdateFields(ctx context.Context, id string, patch domain.FieldPatch) (*domain.Inventory, error) {
	return s.mutate(ctx, "update_fields", id, domain.UpdateFields(patch))
}

// SetFrontImage processes raw at the front image width and stores it as the
// cover photo.
func (s *InventoryService) SetFrontImage(ctx context.Context, id string, raw []byte) (*domain.Inventory, error) {
	if err := s.ensureWritable(ctx, id); err != nil {
		return nil, err
	}
	processed, err := s.process(ctx, "front_image", id, raw, s.frontWidth)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, "set_front_image", id, domain.SetFrontImage(processed))
}

func (s *InventoryService) AnswerCheck(ctx context.Context, id, checkID string, answer domain.Answer, comment *string) (*domain.Inventory, error) {
	return s.mutate(ctx, "answer_check", id, domain.AnswerCheck(checkID, answer, comment))
}

func (s *InventoryService) UpdateItem(ctx context.Context, id, roomID, itemID string, patch domain.ItemPatch) (*domain.Inventory, error) {
	return s.mutate(ctx, "update_item", id, domain.UpdateItem(roomID, itemID, patch))
}

// AttachPhoto runs raw through the image pipeline and appends the result to
// the item. The item's photo list only changes once processing has finished.
func (s *InventoryService) AttachPhoto(ctx context.Context, id, roomID, itemID string, raw []byte) (*domain.Inventory, *domain.Photo, error) {
	if len(raw) == 0 {
		return nil, nil, fmt.Errorf("photo is empty: %w", domain.ErrValidation)
	}
	if err := s.ensureWritable(ctx, id); err != nil {
		return nil, nil, err
	}
	processed, err := s.process(ctx, "photo", id, raw, s.photoWidth)
	if err != nil {
		return nil, nil, err
	}

	photo := domain.Photo{ID: s.newID(), Image: processed, Timestamp: s.now()}
	inv, err := s.mutate(ctx, "attach_photo", id, domain.AppendPhoto(roomID, itemID, photo))
	if err != nil {
		return nil, nil, err
	}
	stored, err := inv.Photo(photo.ID)
	if err != nil {
		return nil, nil, err
	}
	return inv, stored, nil
}

func (s *InventoryService) RemovePhoto(ctx context.Context, id, roomID, itemID, photoID string) (*domain.Inventory, error) {
	return s.mutate(ctx, "remove_photo", id, domain.RemovePhoto(roomID, itemID, photoID))
}

// Photo returns one photo of an inventory.
func (s *InventoryService) Photo(ctx context.Context, id, photoID string) (*domain.Photo, error) {
	inv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return inv.Photo(photoID)
}

func (s *InventoryService) UploadDocument(ctx context.Context, id, docID string, data []byte) (*domain.Inventory, error) {
	return s.mutate(ctx, "upload_document", id, domain.UploadDocument(docID, data, s.now()))
}

func (s *InventoryService) AddSignature(ctx context.Context, id, name string, signer domain.SignerType, data []byte) (*domain.Inventory, error) {
	sig := domain.SignatureEntry{
		ID:   s.newID(),
		Name: name,
		Type: signer,
		Data: data,
		Date: s.now(),
	}
	return s.mutate(ctx, "add_signature", id, domain.AddSignature(sig))
}

// Lock finalises the inventory. After it succeeds every other mutation fails
// with domain.ErrLocked.
func (s *InventoryService) Lock(ctx context.Context, id string) (*domain.Inventory, error) {
	inv, err := s.mutate(ctx, "lock", id, domain.Lock())
	if err == nil {
		s.logger.Info("inventory locked", "inventory_id", id, "signatures", len(inv.Signatures))
	}
	return inv, err
}

// Vault numbers every photo of the inventory in traversal order.
func (s *InventoryService) Vault(ctx context.Context, id string) ([]vault.Entry, error) {
	inv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return vault.Build(inv), nil
}

// Report builds the read-only report view of the current snapshot.
func (s *InventoryService) Report(ctx context.Context, id string) (*domain.Inventory, *report.Report, error) {
	inv, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return inv, report.Build(inv, s.catalog), nil
}

// mutate applies m to the stored snapshot under the write lock. Nothing is
// persisted unless the mutation and the structural checks both succeed.
func (s *InventoryService) mutate(ctx context.Context, op, id string, m domain.Mutation) (*domain.Inventory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, err := s.apply(ctx, id, m)
	s.metrics.ObserveMutation(op, err)
	if err != nil {
		s.logger.Debug("mutation rejected", "op", op, "inventory_id", id, "error", err)
		return nil, err
	}
	s.logger.Debug("inventory updated", "op", op, "inventory_id", id)
	return inv, nil
}

func (s *InventoryService) apply(ctx context.Context, id string, m domain.Mutation) (*domain.Inventory, error) {
	inv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := domain.Apply(inv, s.now(), m)
	if err != nil {
		return nil, err
	}
	if err := s.put(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *InventoryService) load(ctx context.Context, id string) (*domain.Inventory, error) {
	inv, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	if inv == nil {
		return nil, fmt.Errorf("inventory %q: %w", id, domain.ErrNotFound)
	}
	return inv, nil
}

func (s *InventoryService) put(ctx context.Context, inv *domain.Inventory) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	if err := s.store.Put(ctx, inv); err != nil {
		s.logger.Error("failed to persist inventory", "inventory_id", inv.ID, "error", err)
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return nil
}

// ensureWritable fails fast before expensive image work on inventories that
// are missing or locked. The mutation re-checks under the lock.
func (s *InventoryService) ensureWritable(ctx context.Context, id string) error {
	inv, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if inv.Locked() {
		return fmt.Errorf("inventory %q: %w", id, domain.ErrLocked)
	}
	return nil
}

// process runs the image pipeline. Undecodable input is kept as uploaded.
func (s *InventoryService) process(ctx context.Context, target, id string, raw []byte, width int) ([]byte, error) {
	start := time.Now()
	out, err := s.images.Process(ctx, raw, width)
	s.metrics.ObserveImage(target, time.Since(start), err)

	switch {
	case errors.Is(err, domain.ErrImageDecode):
		s.logger.Warn("image could not be decoded, storing original", "inventory_id", id, "target", target, "bytes", len(raw), "error", err)
		return raw, nil
	case err != nil:
		return nil, fmt.Errorf("failed to process image: %w", err)
	}
	s.logger.Debug("image processed", "inventory_id", id, "target", target, "in_bytes", len(raw), "out_bytes", len(out))
	return out, nil
}
