package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/studioreel/internal/analytics"
	"github.com/studioreel/internal/hybrid"
	"github.com/studioreel/internal/store"
)

// Settings is the coordinator binding for the site settings collection.
type Settings = hybrid.Collection[store.SiteSetting, *store.SiteSetting]

// SettingsService 提供系统设置的读取与更新能力，并实现分析模块所需的
// 完播阈值存取接口。
type SettingsService struct {
	col *Settings
}

// NewSettingsService 构造 SettingsService。
func NewSettingsService(col *Settings) *SettingsService {
	return &SettingsService{col: col}
}

// Get 返回指定键的设置值，缺失时返回空串。
func (s *SettingsService) Get(ctx context.Context, key string) (string, error) {
	matches, err := s.col.List(ctx, hybrid.ListOptions[store.SiteSetting]{
		Where: "key = ?",
		Args:  []any{key},
		Match: func(st store.SiteSetting) bool { return st.Key == key },
	})
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", nil
	}
	return matches[0].Value, nil
}

// Set 写入或更新指定键的设置值。
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: setting key is required", hybrid.ErrValidation)
	}

	matches, err := s.col.List(ctx, hybrid.ListOptions[store.SiteSetting]{
		Where: "key = ?",
		Args:  []any{key},
		Match: func(st store.SiteSetting) bool { return st.Key == key },
	})
	if err != nil {
		return err
	}
	if len(matches) > 0 {
		_, err = s.col.Update(ctx, matches[0].ID, func(st *store.SiteSetting) {
			st.Value = value
		})
		return err
	}
	_, err = s.col.Create(ctx, store.SiteSetting{Key: key, Value: value})
	return err
}

// CompletionThreshold 返回当前完播阈值，未配置或非法时回退默认值。
func (s *SettingsService) CompletionThreshold(ctx context.Context) float64 {
	raw, err := s.Get(ctx, store.SettingKeyCompletionThreshold)
	if err != nil || raw == "" {
		return analytics.DefaultCompletionThreshold
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 1 || v > 100 {
		return analytics.DefaultCompletionThreshold
	}
	return v
}

// SetCompletionThreshold 持久化新的完播阈值。
func (s *SettingsService) SetCompletionThreshold(ctx context.Context, percent float64) error {
	if percent < 1 || percent > 100 {
		return fmt.Errorf("%w: completion threshold must be between 1 and 100", hybrid.ErrValidation)
	}
	return s.Set(ctx, store.SettingKeyCompletionThreshold, strconv.FormatFloat(percent, 'f', -1, 64))
}

// CTAText 返回中英双语的行动号召文案。
func (s *SettingsService) CTAText(ctx context.Context) (zh, en string) {
	zh, _ = s.Get(ctx, store.SettingKeyCTATextZH)
	en, _ = s.Get(ctx, store.SettingKeyCTATextEN)
	return zh, en
}

// SetCTAText 更新中英双语的行动号召文案。
func (s *SettingsService) SetCTAText(ctx context.Context, zh, en string) error {
	if err := s.Set(ctx, store.SettingKeyCTATextZH, strings.TrimSpace(zh)); err != nil {
		return err
	}
	return s.Set(ctx, store.SettingKeyCTATextEN, strings.TrimSpace(en))
}
