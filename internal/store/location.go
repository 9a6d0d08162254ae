package store

import "time"

// CachedLocation 是 IP 地理位置查询结果的持久化缓存条目，属于备忘数据而非
// 领域实体，可能在对应会话出现之前就已预热写入。
type CachedLocation struct {
	Meta
	IP        string    `gorm:"size:64;uniqueIndex;not null" json:"ip"`
	Country   string    `gorm:"size:100" json:"country"`
	Region    string    `gorm:"size:100" json:"region"`
	City      string    `gorm:"size:100" json:"city"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timezone  string    `gorm:"size:64" json:"timezone"`
	Org       string    `gorm:"size:200" json:"org"`
	Source    string    `gorm:"size:32" json:"source"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}

// TableName 自定义表名以保持命名一致。
func (CachedLocation) TableName() string {
	return "cached_locations"
}

// Expired 判断缓存条目在指定时间点是否已过期。
func (l *CachedLocation) Expired(now time.Time) bool {
	return !l.ExpiresAt.IsZero() && now.After(l.ExpiresAt)
}
