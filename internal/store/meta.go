package store

import "time"

// Meta 是所有领域实体共享的基础字段。CacheOrigin 仅序列化到本地快照文件，
// 表示该记录在远端不可用期间由缓存直接生成，等待后续人工同步。
type Meta struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CacheOrigin bool      `gorm:"-" json:"cache_origin,omitempty"`
}

// GetID 返回记录主键。
func (m *Meta) GetID() uint { return m.ID }

// SetID 设置记录主键。
func (m *Meta) SetID(id uint) { m.ID = id }

// Touch 更新时间戳；首次写入时同时填充 CreatedAt。
func (m *Meta) Touch(now time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// MarkCacheOrigin 标记记录是否来源于缓存直写。
func (m *Meta) MarkCacheOrigin(v bool) { m.CacheOrigin = v }

// IsCacheOrigin 报告记录是否来源于缓存直写。
func (m *Meta) IsCacheOrigin() bool { return m.CacheOrigin }

// Record 约束混合存储协调器可以处理的实体。
type Record interface {
	GetID() uint
	SetID(id uint)
	Touch(now time.Time)
	MarkCacheOrigin(v bool)
	IsCacheOrigin() bool
}

// Ordered 由带展示排序序号的实体实现，支撑拖拽排序的交换语义。
type Ordered interface {
	GetOrderIndex() int
	SetOrderIndex(n int)
}
