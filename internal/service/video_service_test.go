package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/studioreel/internal/hybrid"
	"github.com/studioreel/internal/store"
)

func setupServiceStores(t *testing.T, models ...any) (*store.Remote, *store.FileStore) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := gdb.AutoMigrate(models...); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	files, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}
	return store.NewRemote(gdb, 0), files
}

func newVideoService(t *testing.T, bucket *store.ObjectStore) *VideoService {
	t.Helper()
	remote, files := setupServiceStores(t, &store.Video{})
	col := hybrid.NewCollection[store.Video]("videos", remote, files)
	return NewVideoService(col, bucket, store.NewMediaCache(""), "media")
}

func TestVideoCreateValidation(t *testing.T) {
	svc := newVideoService(t, store.NewObjectStore("", ""))

	if _, err := svc.Create(context.Background(), VideoInput{VideoKey: "v.mp4"}); !errors.Is(err, ErrVideoTitleEmpty) {
		t.Fatalf("expected ErrVideoTitleEmpty, got %v", err)
	}
	if _, err := svc.Create(context.Background(), VideoInput{TitleZH: "宣传片"}); !errors.Is(err, ErrVideoKeyMissing) {
		t.Fatalf("expected ErrVideoKeyMissing, got %v", err)
	}
}

func TestVideoCreateAssignsOrderIndex(t *testing.T) {
	svc := newVideoService(t, store.NewObjectStore("", ""))

	first, err := svc.Create(context.Background(), VideoInput{TitleZH: "一", VideoKey: "a.mp4"})
	if err != nil {
		t.Fatalf("failed to create: %v", err)
	}
	if first.OrderIndex != 1 {
		t.Fatalf("expected first order index 1, got %d", first.OrderIndex)
	}

	second, err := svc.Create(context.Background(), VideoInput{TitleEN: "Two", VideoKey: "b.mp4"})
	if err != nil {
		t.Fatalf("failed to create: %v", err)
	}
	if second.OrderIndex != 2 {
		t.Fatalf("expected second order index 2, got %d", second.OrderIndex)
	}

	// 显式给定的顺序保持不变
	third, err := svc.Create(context.Background(), VideoInput{TitleZH: "三", VideoKey: "c.mp4", OrderIndex: 9})
	if err != nil {
		t.Fatalf("failed to create: %v", err)
	}
	if third.OrderIndex != 9 {
		t.Fatalf("expected explicit order index 9, got %d", third.OrderIndex)
	}
}

func TestVideoListActiveOnly(t *testing.T) {
	svc := newVideoService(t, store.NewObjectStore("", ""))

	if _, err := svc.Create(context.Background(), VideoInput{TitleZH: "上架", VideoKey: "a.mp4", IsActive: true, OrderIndex: 2}); err != nil {
		t.Fatalf("failed to create: %v", err)
	}
	if _, err := svc.Create(context.Background(), VideoInput{TitleZH: "草稿", VideoKey: "b.mp4", IsActive: false, OrderIndex: 1}); err != nil {
		t.Fatalf("failed to create: %v", err)
	}

	all, err := svc.List(context.Background(), false)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 videos, got %d", len(all))
	}
	if all[0].OrderIndex > all[1].OrderIndex {
		t.Fatalf("expected order-index sorting")
	}

	active, err := svc.List(context.Background(), true)
	if err != nil {
		t.Fatalf("failed to list active: %v", err)
	}
	if len(active) != 1 || active[0].TitleZH != "上架" {
		t.Fatalf("expected only the active video, got %+v", active)
	}
}

func TestVideoDeleteCleansMedia(t *testing.T) {
	var removed []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		removed = append(removed, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := newVideoService(t, store.NewObjectStore(srv.URL, ""))
	created, err := svc.Create(context.Background(), VideoInput{
		TitleZH: "待删除", VideoKey: "videos/demo.mp4", ThumbKey: "thumbs/demo.jpg",
	})
	if err != nil {
		t.Fatalf("failed to create: %v", err)
	}

	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), created.ID); !errors.Is(err, ErrVideoNotFound) {
		t.Fatalf("expected ErrVideoNotFound, got %v", err)
	}

	if len(removed) != 2 {
		t.Fatalf("expected 2 blob removals, got %v", removed)
	}
	for _, path := range removed {
		if !strings.HasPrefix(path, "/object/media/") {
			t.Fatalf("unexpected removal path %s", path)
		}
	}
}

func TestVideoReorder(t *testing.T) {
	svc := newVideoService(t, store.NewObjectStore("", ""))

	first, err := svc.Create(context.Background(), VideoInput{TitleZH: "一", VideoKey: "a.mp4"})
	if err != nil {
		t.Fatalf("failed to create: %v", err)
	}
	if _, err := svc.Create(context.Background(), VideoInput{TitleZH: "二", VideoKey: "b.mp4"}); err != nil {
		t.Fatalf("failed to create: %v", err)
	}

	moved, err := svc.Reorder(context.Background(), first.ID, 2)
	if err != nil {
		t.Fatalf("failed to reorder: %v", err)
	}
	if moved.OrderIndex != 2 {
		t.Fatalf("expected order index 2, got %d", moved.OrderIndex)
	}

	if _, err := svc.Reorder(context.Background(), 9999, 1); !errors.Is(err, ErrVideoNotFound) {
		t.Fatalf("expected ErrVideoNotFound, got %v", err)
	}
}

func TestVideoRenderDescription(t *testing.T) {
	svc := newVideoService(t, store.NewObjectStore("", ""))

	v := &store.Video{
		DescriptionZH: "**重点**内容",
		DescriptionEN: "a [link](https://example.com) and <script>alert(1)</script>",
	}

	zh, err := svc.RenderDescription(v, "zh")
	if err != nil {
		t.Fatalf("failed to render: %v", err)
	}
	if !strings.Contains(zh, "<strong>重点</strong>") {
		t.Fatalf("expected bold markdown, got %s", zh)
	}

	en, err := svc.RenderDescription(v, "en")
	if err != nil {
		t.Fatalf("failed to render: %v", err)
	}
	if strings.Contains(en, "<script>") {
		t.Fatalf("expected script tags to be sanitized, got %s", en)
	}
	if !strings.Contains(en, "href=") {
		t.Fatalf("expected link to survive sanitization, got %s", en)
	}
}
