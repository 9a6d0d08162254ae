package store

// SiteSetting 存储后台可配置的系统级键值对。
type SiteSetting struct {
	Meta
	Key   string `gorm:"size:100;uniqueIndex;not null" json:"key"`
	Value string `gorm:"type:text" json:"value"`
}

// TableName 自定义表名以保持命名一致。
func (SiteSetting) TableName() string {
	return "site_settings"
}

const (
	// SettingKeySiteName 表示站点名称。
	SettingKeySiteName = "site_name"
	// SettingKeyCTATextZH 表示行动号召按钮的中文文案。
	SettingKeyCTATextZH = "cta_text_zh"
	// SettingKeyCTATextEN 表示行动号召按钮的英文文案。
	SettingKeyCTATextEN = "cta_text_en"
	// SettingKeyCompletionThreshold 表示视频完播判定阈值（百分比）。
	SettingKeyCompletionThreshold = "completion_threshold"
)
