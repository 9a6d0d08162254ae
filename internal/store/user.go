package store

// User 定义了后台管理用户模型。
type User struct {
	Meta
	Username string `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Password string `gorm:"size:200;not null" json:"password"`
}

// TableName 自定义表名以保持命名一致。
func (User) TableName() string {
	return "users"
}
