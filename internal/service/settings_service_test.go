package service

import (
	"context"
	"errors"
	"testing"

	"github.com/studioreel/internal/analytics"
	"github.com/studioreel/internal/hybrid"
	"github.com/studioreel/internal/store"
)

func newSettingsService(t *testing.T) *SettingsService {
	t.Helper()
	remote, files := setupServiceStores(t, &store.SiteSetting{})
	return NewSettingsService(hybrid.NewCollection[store.SiteSetting]("settings", remote, files))
}

func TestSettingsGetSet(t *testing.T) {
	svc := newSettingsService(t)

	got, err := svc.Get(context.Background(), store.SettingKeySiteName)
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if got != "" {
		t.Fatalf("missing key must return empty string, got %q", got)
	}

	if err := svc.Set(context.Background(), store.SettingKeySiteName, "StudioReel"); err != nil {
		t.Fatalf("failed to set: %v", err)
	}
	if err := svc.Set(context.Background(), store.SettingKeySiteName, "StudioReel 影像"); err != nil {
		t.Fatalf("failed to overwrite: %v", err)
	}

	got, err = svc.Get(context.Background(), store.SettingKeySiteName)
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if got != "StudioReel 影像" {
		t.Fatalf("expected overwritten value, got %q", got)
	}

	if err := svc.Set(context.Background(), "  ", "x"); !errors.Is(err, hybrid.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty key, got %v", err)
	}
}

func TestCompletionThreshold(t *testing.T) {
	svc := newSettingsService(t)

	if got := svc.CompletionThreshold(context.Background()); got != analytics.DefaultCompletionThreshold {
		t.Fatalf("expected default threshold, got %v", got)
	}

	if err := svc.SetCompletionThreshold(context.Background(), 72.5); err != nil {
		t.Fatalf("failed to set threshold: %v", err)
	}
	if got := svc.CompletionThreshold(context.Background()); got != 72.5 {
		t.Fatalf("expected 72.5, got %v", got)
	}

	for _, bad := range []float64{0, -1, 101} {
		if err := svc.SetCompletionThreshold(context.Background(), bad); !errors.Is(err, hybrid.ErrValidation) {
			t.Fatalf("threshold %v: expected ErrValidation, got %v", bad, err)
		}
	}

	// 存储中的脏值回退默认阈值
	if err := svc.Set(context.Background(), store.SettingKeyCompletionThreshold, "banana"); err != nil {
		t.Fatalf("failed to set dirty value: %v", err)
	}
	if got := svc.CompletionThreshold(context.Background()); got != analytics.DefaultCompletionThreshold {
		t.Fatalf("expected fallback on dirty value, got %v", got)
	}
}

func TestCTAText(t *testing.T) {
	svc := newSettingsService(t)

	if err := svc.SetCTAText(context.Background(), "  立即联系我们  ", "Contact us today"); err != nil {
		t.Fatalf("failed to set cta: %v", err)
	}

	zh, en := svc.CTAText(context.Background())
	if zh != "立即联系我们" || en != "Contact us today" {
		t.Fatalf("unexpected cta text: %q / %q", zh, en)
	}
}
