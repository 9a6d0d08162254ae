package store

// Partner 定义合作伙伴模型。
type Partner struct {
	Meta
	NameZH     string `gorm:"size:200" json:"name_zh"`
	NameEN     string `gorm:"size:200" json:"name_en"`
	LogoKey    string `gorm:"size:500" json:"logo_key"`
	WebsiteURL string `gorm:"size:500" json:"website_url"`
	OrderIndex int    `gorm:"index" json:"order_index"`
	IsActive   bool   `gorm:"default:true" json:"is_active"`
}

// TableName 自定义表名以保持命名一致。
func (Partner) TableName() string {
	return "partners"
}

// GetOrderIndex 返回展示排序序号。
func (r *Partner) GetOrderIndex() int { return r.OrderIndex }

// SetOrderIndex 设置展示排序序号。
func (r *Partner) SetOrderIndex(n int) { r.OrderIndex = n }
