package service

import (
	"context"
	"errors"
	"testing"

	"github.com/studioreel/internal/hybrid"
	"github.com/studioreel/internal/store"
)

func newExclusionService(t *testing.T) *ExclusionService {
	t.Helper()
	remote, files := setupServiceStores(t, &store.ExclusionRule{})
	return NewExclusionService(hybrid.NewCollection[store.ExclusionRule]("exclusions", remote, files))
}

func TestExclusionCRUD(t *testing.T) {
	svc := newExclusionService(t)

	created, err := svc.Create(context.Background(), ExclusionInput{
		CIDR:   "203.0.113.0/24",
		Label:  " 办公网段 ",
		Active: true,
	})
	if err != nil {
		t.Fatalf("failed to create rule: %v", err)
	}
	if created.Label != "办公网段" {
		t.Fatalf("expected trimmed label, got %q", created.Label)
	}

	updated, err := svc.Update(context.Background(), created.ID, ExclusionInput{
		CIDR:       "198.51.100.7",
		Label:      "监控节点",
		Active:     false,
		UAContains: "UptimeRobot",
	})
	if err != nil {
		t.Fatalf("failed to update rule: %v", err)
	}
	if updated.CIDR != "198.51.100.7" || updated.Active || updated.UAContains != "UptimeRobot" {
		t.Fatalf("unexpected updated rule: %+v", updated)
	}

	if _, err := svc.Update(context.Background(), 9999, ExclusionInput{CIDR: "10.0.0.1"}); !errors.Is(err, ErrRuleNotFound) {
		t.Fatalf("expected ErrRuleNotFound, got %v", err)
	}

	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("failed to delete rule: %v", err)
	}
	if err := svc.Delete(context.Background(), created.ID); !errors.Is(err, ErrRuleNotFound) {
		t.Fatalf("expected ErrRuleNotFound on double delete, got %v", err)
	}

	rules, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("failed to list rules: %v", err)
	}
	if len(rules) != 0 {
		t.Fatalf("expected empty rule list, got %d", len(rules))
	}
}

func TestNormalizeCIDR(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"192.168.1.0/24", "192.168.1.0/24", true},
		{"  198.51.100.7  ", "198.51.100.7", true},
		{"2001:db8::/32", "2001:db8::/32", true},
		{"2001:db8::1", "2001:db8::1", true},
		{"", "", false},
		{"not-an-ip", "", false},
		{"192.168.1.0/99", "", false},
		{"300.1.1.1", "", false},
	}
	for _, tc := range cases {
		got, err := normalizeCIDR(tc.raw)
		if tc.ok {
			if err != nil {
				t.Fatalf("normalizeCIDR(%q): unexpected error %v", tc.raw, err)
			}
			if got != tc.want {
				t.Fatalf("normalizeCIDR(%q) = %q, want %q", tc.raw, got, tc.want)
			}
			continue
		}
		if !errors.Is(err, hybrid.ErrValidation) {
			t.Fatalf("normalizeCIDR(%q): expected ErrValidation, got %v", tc.raw, err)
		}
	}
}
