package store

// FAQ 定义常见问题模型，答案正文为 Markdown 原文。
type FAQ struct {
	Meta
	QuestionZH string `gorm:"size:500" json:"question_zh"`
	QuestionEN string `gorm:"size:500" json:"question_en"`
	AnswerZH   string `gorm:"type:text" json:"answer_zh"`
	AnswerEN   string `gorm:"type:text" json:"answer_en"`
	OrderIndex int    `gorm:"index" json:"order_index"`
	IsActive   bool   `gorm:"default:true" json:"is_active"`
}

// TableName 自定义表名以保持命名一致。
func (FAQ) TableName() string {
	return "faqs"
}

// GetOrderIndex 返回展示排序序号。
func (r *FAQ) GetOrderIndex() int { return r.OrderIndex }

// SetOrderIndex 设置展示排序序号。
func (r *FAQ) SetOrderIndex(n int) { r.OrderIndex = n }
