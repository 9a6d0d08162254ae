package service

import (
	"context"
	"errors"
	"strings"

	"github.com/studioreel/internal/hybrid"
	"github.com/studioreel/internal/store"
)

var (
	ErrFAQNotFound        = errors.New("faq not found")
	ErrFAQQuestionMissing = errors.New("faq question is required in at least one language")
)

// FAQs is the coordinator binding for the FAQ collection.
type FAQs = hybrid.Collection[store.FAQ, *store.FAQ]

// FAQService handles FAQ CRUD. Answers are stored as markdown and rendered
// to sanitized HTML on the way out.
type FAQService struct {
	col *FAQs
}

// FAQInput represents fields accepted when creating or updating a FAQ.
type FAQInput struct {
	QuestionZH string
	QuestionEN string
	AnswerZH   string
	AnswerEN   string
	OrderIndex int
	IsActive   bool
}

// NewFAQService creates a FAQService instance.
func NewFAQService(col *FAQs) *FAQService {
	return &FAQService{col: col}
}

// List returns FAQs ordered for display.
func (s *FAQService) List(ctx context.Context, activeOnly bool) ([]store.FAQ, error) {
	opts := hybrid.ListOptions[store.FAQ]{
		Less: func(a, b store.FAQ) bool { return a.OrderIndex < b.OrderIndex },
	}
	if activeOnly {
		opts.Where = "is_active = ?"
		opts.Args = []any{true}
		opts.Match = func(f store.FAQ) bool { return f.IsActive }
	}
	return s.col.List(ctx, opts)
}

// Get fetches a FAQ by id.
func (s *FAQService) Get(ctx context.Context, id uint) (*store.FAQ, error) {
	f, err := s.col.Get(ctx, id)
	if err != nil {
		if errors.Is(err, hybrid.ErrNotFound) {
			return nil, ErrFAQNotFound
		}
		return nil, err
	}
	return &f, nil
}

// Create inserts a new FAQ.
func (s *FAQService) Create(ctx context.Context, input FAQInput) (*store.FAQ, error) {
	if strings.TrimSpace(input.QuestionZH) == "" && strings.TrimSpace(input.QuestionEN) == "" {
		return nil, ErrFAQQuestionMissing
	}

	orderIndex := input.OrderIndex
	if orderIndex <= 0 {
		items, err := s.col.List(ctx, hybrid.ListOptions[store.FAQ]{})
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

	f := store.FAQ{
		QuestionZH: strings.TrimSpace(input.QuestionZH),
		QuestionEN: strings.TrimSpace(input.QuestionEN),
		AnswerZH:   strings.TrimSpace(input.AnswerZH),
		AnswerEN:   strings.TrimSpace(input.AnswerEN),
		OrderIndex: orderIndex,
		IsActive:   input.IsActive,
	}
	created, err := s.col.Create(ctx, f)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces the editable fields of a FAQ.
func (s *FAQService) Update(ctx context.Context, id uint, input FAQInput) (*store.FAQ, error) {
	if strings.TrimSpace(input.QuestionZH) == "" && strings.TrimSpace(input.QuestionEN) == "" {
		return nil, ErrFAQQuestionMissing
	}

	updated, err := s.col.Update(ctx, id, func(f *store.FAQ) {
		f.QuestionZH = strings.TrimSpace(input.QuestionZH)
		f.QuestionEN = strings.TrimSpace(input.QuestionEN)
		f.AnswerZH = strings.TrimSpace(input.AnswerZH)
		f.AnswerEN = strings.TrimSpace(input.AnswerEN)
		f.IsActive = input.IsActive
		if input.OrderIndex > 0 {
			f.OrderIndex = input.OrderIndex
		}
	})
	if err != nil {
		if errors.Is(err, hybrid.ErrNotFound) {
			return nil, ErrFAQNotFound
		}
		return nil, err
	}
	return &updated, nil
}

// Delete removes a FAQ.
func (s *FAQService) Delete(ctx context.Context, id uint) error {
	if err := s.col.Delete(ctx, id); err != nil {
		if errors.Is(err, hybrid.ErrNotFound) {
			return ErrFAQNotFound
		}
		return err
	}
	return nil
}

// Reorder moves a FAQ to the target order index.
func (s *FAQService) Reorder(ctx context.Context, id uint, orderIndex int) (*store.FAQ, error) {
	f, err := s.col.Reorder(ctx, id, orderIndex)
	if err != nil {
		if errors.Is(err, hybrid.ErrNotFound) {
			return nil, ErrFAQNotFound
		}
		return nil, err
	}
	return &f, nil
}

// RenderAnswer returns the sanitized HTML answer in the given language.
func (s *FAQService) RenderAnswer(f *store.FAQ, lang string) (string, error) {
	if lang == "en" {
		return RenderMarkdown(f.AnswerEN)
	}
	return RenderMarkdown(f.AnswerZH)
}
