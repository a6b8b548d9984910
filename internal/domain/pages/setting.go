package pages

import (
	"time"

	"gorm.io/datatypes"
)

const (
	SettingEnabledScopes = "enabled_scopes"
	SettingLastFullSync  = "last_full_sync"
)

// PageSetting is durable generator configuration (enabled scopes, last full sync).
type PageSetting struct {
	Key       string         `gorm:"column:key;primaryKey" json:"key"`
	Value     datatypes.JSON `gorm:"column:value;type:jsonb" json:"value"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (PageSetting) TableName() string { return "page_setting" }
