package store

// GalleryItem 定义图库作品模型。
type GalleryItem struct {
	Meta
	TitleZH    string `gorm:"size:200" json:"title_zh"`
	TitleEN    string `gorm:"size:200" json:"title_en"`
	ImageKey   string `gorm:"size:500" json:"image_key"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	OrderIndex int    `gorm:"index" json:"order_index"`
	IsActive   bool   `gorm:"default:true" json:"is_active"`
}

// TableName 自定义表名以保持命名一致。
func (GalleryItem) TableName() string {
	return "gallery_items"
}

// GetOrderIndex 返回展示排序序号。
func (r *GalleryItem) GetOrderIndex() int { return r.OrderIndex }

// SetOrderIndex 设置展示排序序号。
func (r *GalleryItem) SetOrderIndex(n int) { r.OrderIndex = n }
