package store

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ObjectStore 是远端对象存储的瘦客户端，仅承担实体删除时的媒体清理。
// 调用失败由上层记录日志后忽略，不阻塞元数据删除。
type ObjectStore struct {
	baseURL string
	token   string
	http    httpDoer
}

// NewObjectStore 构造 ObjectStore。baseURL 为空时 Remove 直接返回成功，
// 便于无对象存储的开发环境。
func NewObjectStore(baseURL, token string) *ObjectStore {
	return &ObjectStore{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SetHTTPClient 替换底层 HTTP 客户端，用于测试注入。
func (o *ObjectStore) SetHTTPClient(client httpDoer) {
	if client == nil {
		o.http = &http.Client{Timeout: 15 * time.Second}
		return
	}
	o.http = client
}

// Remove 删除指定 bucket 下的对象。
func (o *ObjectStore) Remove(ctx context.Context, bucket, key string) error {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if o.baseURL == "" || key == "" {
		return nil
	}

	endpoint := fmt.Sprintf("%s/object/%s/%s", o.baseURL, url.PathEscape(bucket), key)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	if o.token != "" {
		req.Header.Set("Authorization", "Bearer "+o.token)
	}

	resp, err := o.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("object storage returned status %d", resp.StatusCode)
	}
	return nil
}

// MediaCache 管理本地媒体缓存目录的文件淘汰。
type MediaCache struct {
	dir string
}

// NewMediaCache 构造 MediaCache，目录为空时 Evict 为空操作。
func NewMediaCache(dir string) *MediaCache {
	return &MediaCache{dir: strings.TrimSpace(dir)}
}

// Evict 删除本地缓存的媒体文件；文件不存在不算错误。
func (m *MediaCache) Evict(filename string) error {
	filename = filepath.Base(strings.TrimSpace(filename))
	if m.dir == "" || filename == "" || filename == "." {
		return nil
	}
	err := os.Remove(filepath.Join(m.dir, filename))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
