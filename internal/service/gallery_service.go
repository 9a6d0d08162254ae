package service

import (
	"context"
	"errors"
	"strings"

	"github.com/studioreel/internal/hybrid"
	"github.com/studioreel/internal/store"
)

var (
	ErrGalleryNotFound     = errors.New("gallery item not found")
	ErrGalleryImageMissing = errors.New("gallery image key is required")
)

// GalleryItems is the coordinator binding for the gallery collection.
type GalleryItems = hybrid.Collection[store.GalleryItem, *store.GalleryItem]

// GalleryService handles gallery CRUD.
type GalleryService struct {
	col        *GalleryItems
	bucket     *store.ObjectStore
	media      *store.MediaCache
	bucketName string
}

// GalleryInput represents fields accepted when creating or updating a
// gallery item.
type GalleryInput struct {
	TitleZH    string
	TitleEN    string
	ImageKey   string
	Width      int
	Height     int
	OrderIndex int
	IsActive   bool
}

// NewGalleryService creates a GalleryService instance.
func NewGalleryService(col *GalleryItems, bucket *store.ObjectStore, media *store.MediaCache, bucketName string) *GalleryService {
	return &GalleryService{col: col, bucket: bucket, media: media, bucketName: bucketName}
}

// List returns gallery items ordered for display.
func (s *GalleryService) List(ctx context.Context, activeOnly bool) ([]store.GalleryItem, error) {
	opts := hybrid.ListOptions[store.GalleryItem]{
		Less: func(a, b store.GalleryItem) bool { return a.OrderIndex < b.OrderIndex },
	}
	if activeOnly {
		opts.Where = "is_active = ?"
		opts.Args = []any{true}
		opts.Match = func(g store.GalleryItem) bool { return g.IsActive }
	}
	return s.col.List(ctx, opts)
}

// Get fetches a gallery item by id.
func (s *GalleryService) Get(ctx context.Context, id uint) (*store.GalleryItem, error) {
	item, err := s.col.Get(ctx, id)
	if err != nil {
		if errors.Is(err, hybrid.ErrNotFound) {
			return nil, ErrGalleryNotFound
		}
		return nil, err
	}
	return &item, nil
}

// Create inserts a new gallery item.
func (s *GalleryService) Create(ctx context.Context, input GalleryInput) (*store.GalleryItem, error) {
	if strings.TrimSpace(input.ImageKey) == "" {
		return nil, ErrGalleryImageMissing
	}

	orderIndex := input.OrderIndex
	if orderIndex <= 0 {
		items, err := s.col.List(ctx, hybrid.ListOptions[store.GalleryItem]{})
		if err != nil {
			return nil, err
		}
		for i := range items {
			if items[i].OrderIndex >= orderIndex {
				orderIndex = items[i].OrderIndex + 1
			}
		}
		if orderIndex <= 0 {
			orderIndex = 1
		}
	}

	item := store.GalleryItem{
		TitleZH:    strings.TrimSpace(input.TitleZH),
		TitleEN:    strings.TrimSpace(input.TitleEN),
		ImageKey:   strings.TrimSpace(input.ImageKey),
		Width:      input.Width,
		Height:     input.Height,
		OrderIndex: orderIndex,
		IsActive:   input.IsActive,
	}
	created, err := s.col.Create(ctx, item)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces the editable fields of a gallery item.
func (s *GalleryService) Update(ctx context.Context, id uint, input GalleryInput) (*store.GalleryItem, error) {
	if strings.TrimSpace(input.ImageKey) == "" {
		return nil, ErrGalleryImageMissing
	}

	updated, err := s.col.Update(ctx, id, func(g *store.GalleryItem) {
		g.TitleZH = strings.TrimSpace(input.TitleZH)
		g.TitleEN = strings.TrimSpace(input.TitleEN)
		g.ImageKey = strings.TrimSpace(input.ImageKey)
		g.Width = input.Width
		g.Height = input.Height
		g.IsActive = input.IsActive
		if input.OrderIndex > 0 {
			g.OrderIndex = input.OrderIndex
		}
	})
	if err != nil {
		if errors.Is(err, hybrid.ErrNotFound) {
			return nil, ErrGalleryNotFound
		}
		return nil, err
	}
	return &updated, nil
}

// Delete removes the gallery item and best-effort cleans up its image blob.
func (s *GalleryService) Delete(ctx context.Context, id uint) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	key := item.ImageKey
	var cleanup hybrid.CleanupFunc
	if strings.TrimSpace(key) != "" {
		cleanup = func(ctx context.Context) error {
			if s.bucket != nil {
				if err := s.bucket.Remove(ctx, s.bucketName, key); err != nil {
					return err
				}
			}
			if s.media != nil {
				return s.media.Evict(key)
			}
			return nil
		}
	}
	return s.col.Delete(ctx, id, cleanup)
}

// Reorder moves a gallery item to the target order index.
func (s *GalleryService) Reorder(ctx context.Context, id uint, orderIndex int) (*store.GalleryItem, error) {
	item, err := s.col.Reorder(ctx, id, orderIndex)
	if err != nil {
		if errors.Is(err, hybrid.ErrNotFound) {
			return nil, ErrGalleryNotFound
		}
		return nil, err
	}
	return &item, nil
}
