package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/studioreel/internal/hybrid"
	"github.com/studioreel/internal/store"
)

// ErrRuleNotFound is returned for an unknown exclusion rule id.
var ErrRuleNotFound = errors.New("exclusion rule not found")

// ExclusionRules is the coordinator binding for the exclusion rule
// collection.
type ExclusionRules = hybrid.Collection[store.ExclusionRule, *store.ExclusionRule]

// ExclusionService manages the IP ranges whose traffic is dropped from
// analytics counting.
type ExclusionService struct {
	col *ExclusionRules
}

// ExclusionInput represents fields accepted when creating or updating an
// exclusion rule.
type ExclusionInput struct {
	CIDR       string
	Label      string
	Active     bool
	UAContains string
}

// NewExclusionService creates an ExclusionService instance.
func NewExclusionService(col *ExclusionRules) *ExclusionService {
	return &ExclusionService{col: col}
}

// List returns all exclusion rules.
func (s *ExclusionService) List(ctx context.Context) ([]store.ExclusionRule, error) {
	return s.col.List(ctx, hybrid.ListOptions[store.ExclusionRule]{})
}

// Create inserts a new exclusion rule after validating the CIDR form.
func (s *ExclusionService) Create(ctx context.Context, input ExclusionInput) (*store.ExclusionRule, error) {
	cidr, err := normalizeCIDR(input.CIDR)
	if err != nil {
		return nil, err
	}

	rule := store.ExclusionRule{
		CIDR:       cidr,
		Label:      strings.TrimSpace(input.Label),
		Active:     input.Active,
		UAContains: strings.TrimSpace(input.UAContains),
	}
	created, err := s.col.Create(ctx, rule)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces the editable fields of an exclusion rule.
func (s *ExclusionService) Update(ctx context.Context, id uint, input ExclusionInput) (*store.ExclusionRule, error) {
	cidr, err := normalizeCIDR(input.CIDR)
	if err != nil {
		return nil, err
	}

	updated, err := s.col.Update(ctx, id, func(r *store.ExclusionRule) {
		r.CIDR = cidr
		r.Label = strings.TrimSpace(input.Label)
		r.Active = input.Active
		r.UAContains = strings.TrimSpace(input.UAContains)
	})
	if err != nil {
		if errors.Is(err, hybrid.ErrNotFound) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}
	return &updated, nil
}

// Delete removes an exclusion rule.
func (s *ExclusionService) Delete(ctx context.Context, id uint) error {
	if err := s.col.Delete(ctx, id); err != nil {
		if errors.Is(err, hybrid.ErrNotFound) {
			return ErrRuleNotFound
		}
		return err
	}
	return nil
}

// normalizeCIDR validates both accepted forms: a plain IP literal for exact
// matching, or ip/prefix network notation.
func normalizeCIDR(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: cidr is required", hybrid.ErrValidation)
	}
	if strings.Contains(raw, "/") {
		if _, _, err := net.ParseCIDR(raw); err != nil {
			return "", fmt.Errorf("%w: invalid cidr %q", hybrid.ErrValidation, raw)
		}
		return raw, nil
	}
	if net.ParseIP(raw) == nil {
		return "", fmt.Errorf("%w: invalid ip literal %q", hybrid.ErrValidation, raw)
	}
	return raw, nil
}
