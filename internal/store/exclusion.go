package store

// ExclusionRule 定义按 IP 段排除统计的规则。CIDR 不含 / 前缀时按字面量精确匹配。
// UAContains 非空时要求 User-Agent 同时包含该子串规则才生效。
type ExclusionRule struct {
	Meta
	CIDR       string `gorm:"size:64;not null" json:"cidr"`
	Label      string `gorm:"size:200" json:"label"`
	Active     bool   `gorm:"default:true" json:"active"`
	UAContains string `gorm:"size:200" json:"ua_contains"`
}

// TableName 自定义表名以保持命名一致。
func (ExclusionRule) TableName() string {
	return "exclusion_rules"
}
