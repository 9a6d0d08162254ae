package service

import (
	"context"
	"errors"
	"strings"

	"github.com/studioreel/internal/hybrid"
	"github.com/studioreel/internal/store"
)

var (
	ErrVideoNotFound   = errors.New("video not found")
	ErrVideoTitleEmpty = errors.New("video title is required in at least one language")
	ErrVideoKeyMissing = errors.New("video file key is required")
)

// Videos is the coordinator binding for the video collection.
type Videos = hybrid.Collection[store.Video, *store.Video]

// VideoService handles video CRUD on top of the hybrid coordinator and owns
// the media cleanup that goes with deleting a video.
type VideoService struct {
	col        *Videos
	bucket     *store.ObjectStore
	media      *store.MediaCache
	bucketName string
}

// VideoInput represents fields accepted when creating or updating a video.
type VideoInput struct {
	TitleZH         string
	TitleEN         string
	DescriptionZH   string
	DescriptionEN   string
	VideoKey        string
	ThumbKey        string
	DurationSeconds int
	OrderIndex      int
	IsActive        bool
}

// NewVideoService creates a VideoService instance.
func NewVideoService(col *Videos, bucket *store.ObjectStore, media *store.MediaCache, bucketName string) *VideoService {
	return &VideoService{col: col, bucket: bucket, media: media, bucketName: bucketName}
}

// List returns videos ordered for display. activeOnly hides drafts.
func (s *VideoService) List(ctx context.Context, activeOnly bool) ([]store.Video, error) {
	opts := hybrid.ListOptions[store.Video]{
		Less: func(a, b store.Video) bool { return a.OrderIndex < b.OrderIndex },
	}
	if activeOnly {
		opts.Where = "is_active = ?"
		opts.Args = []any{true}
		opts.Match = func(v store.Video) bool { return v.IsActive }
	}
	return s.col.List(ctx, opts)
}

// Get fetches a video by id.
func (s *VideoService) Get(ctx context.Context, id uint) (*store.Video, error) {
	v, err := s.col.Get(ctx, id)
	if err != nil {
		if errors.Is(err, hybrid.ErrNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	return &v, nil
}

// Create inserts a new video, assigning the next free order index when none
// is given.
func (s *VideoService) Create(ctx context.Context, input VideoInput) (*store.Video, error) {
	if err := validateVideoInput(input); err != nil {
		return nil, err
	}

	orderIndex := input.OrderIndex
	if orderIndex <= 0 {
		next, err := s.nextOrderIndex(ctx)
		if err != nil {
			return nil, err
		}
		orderIndex = next
	}

	v := store.Video{
		TitleZH:         strings.TrimSpace(input.TitleZH),
		TitleEN:         strings.TrimSpace(input.TitleEN),
		DescriptionZH:   strings.TrimSpace(input.DescriptionZH),
		DescriptionEN:   strings.TrimSpace(input.DescriptionEN),
		VideoKey:        strings.TrimSpace(input.VideoKey),
		ThumbKey:        strings.TrimSpace(input.ThumbKey),
		DurationSeconds: input.DurationSeconds,
		OrderIndex:      orderIndex,
		IsActive:        input.IsActive,
	}
	created, err := s.col.Create(ctx, v)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces the editable fields of a video.
func (s *VideoService) Update(ctx context.Context, id uint, input VideoInput) (*store.Video, error) {
	if err := validateVideoInput(input); err != nil {
		return nil, err
	}

	updated, err := s.col.Update(ctx, id, func(v *store.Video) {
		v.TitleZH = strings.TrimSpace(input.TitleZH)
		v.TitleEN = strings.TrimSpace(input.TitleEN)
		v.DescriptionZH = strings.TrimSpace(input.DescriptionZH)
		v.DescriptionEN = strings.TrimSpace(input.DescriptionEN)
		v.VideoKey = strings.TrimSpace(input.VideoKey)
		v.ThumbKey = strings.TrimSpace(input.ThumbKey)
		v.DurationSeconds = input.DurationSeconds
		v.IsActive = input.IsActive
		if input.OrderIndex > 0 {
			v.OrderIndex = input.OrderIndex
		}
	})
	if err != nil {
		if errors.Is(err, hybrid.ErrNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	return &updated, nil
}

// Delete removes the video metadata and then cleans up its media blobs
// best-effort: a failed blob removal never blocks the delete.
func (s *VideoService) Delete(ctx context.Context, id uint) error {
	v, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	return s.col.Delete(ctx, id,
		s.removeBlob(v.VideoKey),
		s.removeBlob(v.ThumbKey),
	)
}

// Reorder moves a video to the target order index, swapping with the current
// holder of that index.
func (s *VideoService) Reorder(ctx context.Context, id uint, orderIndex int) (*store.Video, error) {
	v, err := s.col.Reorder(ctx, id, orderIndex)
	if err != nil {
		if errors.Is(err, hybrid.ErrNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	return &v, nil
}

// RenderDescription returns the sanitized HTML for the description in the
// given language ("en" or default zh).
func (s *VideoService) RenderDescription(v *store.Video, lang string) (string, error) {
	if lang == "en" {
		return RenderMarkdown(v.DescriptionEN)
	}
	return RenderMarkdown(v.DescriptionZH)
}

func (s *VideoService) removeBlob(key string) hybrid.CleanupFunc {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	return func(ctx context.Context) error {
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

func (s *VideoService) nextOrderIndex(ctx context.Context) (int, error) {
	items, err := s.col.List(ctx, hybrid.ListOptions[store.Video]{})
	if err != nil {
		return 0, err
	}
	max := 0
	for i := range items {
		if items[i].OrderIndex > max {
			max = items[i].OrderIndex
		}
	}
	return max + 1, nil
}

func validateVideoInput(input VideoInput) error {
	if strings.TrimSpace(input.TitleZH) == "" && strings.TrimSpace(input.TitleEN) == "" {
		return ErrVideoTitleEmpty
	}
	if strings.TrimSpace(input.VideoKey) == "" {
		return ErrVideoKeyMissing
	}
	return nil
}
