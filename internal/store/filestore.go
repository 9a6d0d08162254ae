package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
)

// FileStore 将每个实体集合保存为一个 JSON 数组快照文件，作为远端存储的
// 本地影子。读写都是整文件替换，同一文件的写入者按文件加锁串行化。
// 快照必须能脱离远端 schema 独立解析，保证服务可以仅凭缓存冷启动。
type FileStore struct {
	dir   string
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore 创建 FileStore 并确保目录存在。
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file store dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

func (s *FileStore) lock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Load 读取集合快照；文件不存在视为空集合。
func Load[T any](s *FileStore, name string) ([]T, error) {
	l := s.lock(name)
	l.Lock()
	defer l.Unlock()
	return loadLocked[T](s, name)
}

func loadLocked[T any](s *FileStore, name string) ([]T, error) {
	raw, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return []T{}, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", name, err)
	}
	return items, nil
}

// Save 用 tmp+rename 原子替换集合快照。
func Save[T any](s *FileStore, name string, items []T) error {
	l := s.lock(name)
	l.Lock()
	defer l.Unlock()
	return saveLocked(s, name, items)
}

func saveLocked[T any](s *FileStore, name string, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", name, err)
	}

	tmp := s.path(name) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(name))
}

// Mutate 在文件锁内执行读-改-写，避免并发写入者互相覆盖。
func Mutate[T any](s *FileStore, name string, fn func(items []T) ([]T, error)) error {
	l := s.lock(name)
	l.Lock()
	defer l.Unlock()

	items, err := loadLocked[T](s, name)
	if err != nil {
		return err
	}
	next, err := fn(items)
	if err != nil {
		return err
	}
	return saveLocked(s, name, next)
}
