package service

import (
	"context"
	"errors"
	"strings"

	"github.com/studioreel/internal/hybrid"
	"github.com/studioreel/internal/store"
)

var (
	ErrPartnerNotFound    = errors.New("partner not found")
	ErrPartnerNameMissing = errors.New("partner name is required in at least one language")
)

// Partners is the coordinator binding for the partner collection.
type Partners = hybrid.Collection[store.Partner, *store.Partner]

// PartnerService handles partner CRUD.
type PartnerService struct {
	col        *Partners
	bucket     *store.ObjectStore
	media      *store.MediaCache
	bucketName string
}

// PartnerInput represents fields accepted when creating or updating a
// partner.
type PartnerInput struct {
	NameZH     string
	NameEN     string
	LogoKey    string
	WebsiteURL string
	OrderIndex int
	IsActive   bool
}

// NewPartnerService creates a PartnerService instance.
func NewPartnerService(col *Partners, bucket *store.ObjectStore, media *store.MediaCache, bucketName string) *PartnerService {
	return &PartnerService{col: col, bucket: bucket, media: media, bucketName: bucketName}
}

// List returns partners ordered for display.
func (s *PartnerService) List(ctx context.Context, activeOnly bool) ([]store.Partner, error) {
	opts := hybrid.ListOptions[store.Partner]{
		Less: func(a, b store.Partner) bool { return a.OrderIndex < b.OrderIndex },
	}
	if activeOnly {
		opts.Where = "is_active = ?"
		opts.Args = []any{true}
		opts.Match = func(p store.Partner) bool { return p.IsActive }
	}
	return s.col.List(ctx, opts)
}

// Get fetches a partner by id.
func (s *PartnerService) Get(ctx context.Context, id uint) (*store.Partner, error) {
	p, err := s.col.Get(ctx, id)
	if err != nil {
		if errors.Is(err, hybrid.ErrNotFound) {
			return nil, ErrPartnerNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a new partner.
func (s *PartnerService) Create(ctx context.Context, input PartnerInput) (*store.Partner, error) {
	if strings.TrimSpace(input.NameZH) == "" && strings.TrimSpace(input.NameEN) == "" {
		return nil, ErrPartnerNameMissing
	}

	orderIndex := input.OrderIndex
	if orderIndex <= 0 {
		items, err := s.col.List(ctx, hybrid.ListOptions[store.Partner]{})
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

	p := store.Partner{
		NameZH:     strings.TrimSpace(input.NameZH),
		NameEN:     strings.TrimSpace(input.NameEN),
		LogoKey:    strings.TrimSpace(input.LogoKey),
		WebsiteURL: strings.TrimSpace(input.WebsiteURL),
		OrderIndex: orderIndex,
		IsActive:   input.IsActive,
	}
	created, err := s.col.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces the editable fields of a partner.
func (s *PartnerService) Update(ctx context.Context, id uint, input PartnerInput) (*store.Partner, error) {
	if strings.TrimSpace(input.NameZH) == "" && strings.TrimSpace(input.NameEN) == "" {
		return nil, ErrPartnerNameMissing
	}

	updated, err := s.col.Update(ctx, id, func(p *store.Partner) {
		p.NameZH = strings.TrimSpace(input.NameZH)
		p.NameEN = strings.TrimSpace(input.NameEN)
		p.LogoKey = strings.TrimSpace(input.LogoKey)
		p.WebsiteURL = strings.TrimSpace(input.WebsiteURL)
		p.IsActive = input.IsActive
		if input.OrderIndex > 0 {
			p.OrderIndex = input.OrderIndex
		}
	})
	if err != nil {
		if errors.Is(err, hybrid.ErrNotFound) {
			return nil, ErrPartnerNotFound
		}
		return nil, err
	}
	return &updated, nil
}

// Delete removes the partner and best-effort cleans up its logo blob.
func (s *PartnerService) Delete(ctx context.Context, id uint) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	key := p.LogoKey
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

// Reorder moves a partner to the target order index.
func (s *PartnerService) Reorder(ctx context.Context, id uint, orderIndex int) (*store.Partner, error) {
	p, err := s.col.Reorder(ctx, id, orderIndex)
	if err != nil {
		if errors.Is(err, hybrid.ErrNotFound) {
			return nil, ErrPartnerNotFound
		}
		return nil, err
	}
	return &p, nil
}
