package entities

import (
	"time"
)

type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"uniqueIndex;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	// Reader style overrides
	SettingKeyStyleTheme            = "style_theme"
	SettingKeyStyleTextSize         = "style_text_size"
	SettingKeyStyleLineHeight       = "style_line_height"
	SettingKeyStyleFontFamily       = "style_font_family"
	SettingKeyStyleParagraphSpacing = "style_paragraph_spacing"
	SettingKeyStyleTextAlign        = "style_text_align"
	SettingKeyStyleMargin           = "style_margin"

	// Library
	SettingKeyLibraryDir          = "library_dir"
	SettingKeyLibraryScanEnabled  = "library_scan_enabled"
	SettingKeyLibraryScanSchedule = "library_scan_schedule"
	SettingKeyLibraryScanLastAt   = "library_scan_last_at"
)
