package store

import "time"

// VisitorSession 记录一次访客会话。地理位置字段在异步富化完成前为空。
type VisitorSession struct {
	Meta
	SessionID        string    `gorm:"size:64;uniqueIndex;not null" json:"session_id"`
	IP               string    `gorm:"size:64;index" json:"ip"`
	UserAgent        string    `gorm:"size:500" json:"user_agent"`
	Language         string    `gorm:"size:32" json:"language"`
	Referrer         string    `gorm:"size:500" json:"referrer"`
	PageURL          string    `gorm:"size:500" json:"page_url"`
	ScreenResolution string    `gorm:"size:32" json:"screen_resolution"`
	Country          string    `gorm:"size:100;index" json:"country"`
	Region           string    `gorm:"size:100" json:"region"`
	City             string    `gorm:"size:100" json:"city"`
	Duration         int       `json:"duration"`
	PageCount        int       `json:"page_count"`
	IsBot            bool      `gorm:"index" json:"is_bot"`
	IsTestData       bool      `gorm:"index" json:"is_test_data"`
	IsReturning      bool      `json:"is_returning"`
	FirstSeenAt      time.Time `gorm:"index" json:"first_seen_at"`
	LastSeenAt       time.Time `json:"last_seen_at"`
}

// TableName 自定义表名以保持命名一致。
func (VisitorSession) TableName() string {
	return "visitor_sessions"
}
