package store

// VideoView 记录一次观看事件；VideoID 为 0 时表示普通页面浏览。
// 记录写入后不再修改，仅在全局完播阈值调整时重算 Completed。
type VideoView struct {
	Meta
	SessionID      string  `gorm:"size:64;index;not null" json:"session_id"`
	VideoID        uint    `gorm:"index" json:"video_id"`
	WatchTime      int     `json:"watch_time"`
	CompletionRate float64 `json:"completion_rate"`
	Completed      bool    `gorm:"index" json:"completed"`
	IsBot          bool    `json:"is_bot"`
	IsTestData     bool    `json:"is_test_data"`
}

// TableName 自定义表名以保持命名一致。
func (VideoView) TableName() string {
	return "video_views"
}
