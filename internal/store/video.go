package store

// Video 定义作品视频模型，文案字段按中英双语成对出现。
type Video struct {
	Meta
	TitleZH         string `gorm:"size:200" json:"title_zh"`
	TitleEN         string `gorm:"size:200" json:"title_en"`
	DescriptionZH   string `gorm:"type:text" json:"description_zh"`
	DescriptionEN   string `gorm:"type:text" json:"description_en"`
	VideoKey        string `gorm:"size:500" json:"video_key"`
	ThumbKey        string `gorm:"size:500" json:"thumb_key"`
	DurationSeconds int    `json:"duration_seconds"`
	OrderIndex      int    `gorm:"index" json:"order_index"`
	IsActive        bool   `gorm:"default:true" json:"is_active"`
}

// TableName 自定义表名以保持命名一致。
func (Video) TableName() string {
	return "videos"
}

// GetOrderIndex 返回展示排序序号。
func (r *Video) GetOrderIndex() int { return r.OrderIndex }

// SetOrderIndex 设置展示排序序号。
func (r *Video) SetOrderIndex(n int) { r.OrderIndex = n }
