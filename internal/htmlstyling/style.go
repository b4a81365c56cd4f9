// Package htmlstyling turns raw EPUB spine documents into styled pages for
// the client's web view: theme presets, persisted user overrides, and HTML
// injection of the resulting style sheet.
package htmlstyling

import (
	"fmt"
	"strings"
)

type TextAlign string

const (
	TextAlignLeft    TextAlign = "left"
	TextAlignCenter  TextAlign = "center"
	TextAlignRight   TextAlign = "right"
	TextAlignJustify TextAlign = "justify"
)

// ParseTextAlign accepts any case.
func ParseTextAlign(s string) (TextAlign, error) {
	switch a := TextAlign(strings.ToLower(strings.TrimSpace(s))); a {
	case TextAlignLeft, TextAlignCenter, TextAlignRight, TextAlignJustify:
		return a, nil
	}
	return "", fmt.Errorf("%w: unknown text align %q", ErrInvalidStyle, s)
}

type ThemeType string

const (
	ThemeLight ThemeType = "light"
	ThemeDark  ThemeType = "dark"
	ThemeSepia ThemeType = "sepia"
)

// ParseTheme accepts any case.
func ParseTheme(s string) (ThemeType, error) {
	switch t := ThemeType(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark, ThemeSepia:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown theme %q", ErrInvalidStyle, s)
}

// EpubStyle is the visual presentation applied to every spine document.
type EpubStyle struct {
	TextColor        string    `json:"text_color"`
	BackgroundColor  string    `json:"background_color"`
	LinkColor        string    `json:"link_color"`
	TextSize         float64   `json:"text_size"`   // px
	LineHeight       float64   `json:"line_height"` // multiple of the font size
	FontFamily       string    `json:"font_family"`
	ParagraphSpacing float64   `json:"paragraph_spacing"` // em
	TextAlign        TextAlign `json:"text_align"`
	Margin           int       `json:"margin"` // px
	Theme            ThemeType `json:"theme"`
}

// Preset returns the built-in style for theme. Unknown themes get the light
// preset.
func Preset(theme ThemeType) EpubStyle {
	base := EpubStyle{
		TextSize:         18,
		LineHeight:       1.6,
		ParagraphSpacing: 1.2,
		TextAlign:        TextAlignJustify,
		Margin:           20,
	}

	switch theme {
	case ThemeDark:
		base.TextColor = "#E0E0E0"
		base.BackgroundColor = "#121212"
		base.LinkColor = "#64B5F6"
		base.FontFamily = "Palatino, Georgia, serif"
		base.Theme = ThemeDark
	case ThemeSepia:
		base.TextColor = "#5B4636"
		base.BackgroundColor = "#F8F1E3"
		base.LinkColor = "#9C6644"
		base.FontFamily = "Palatino, Georgia, serif"
		base.Theme = ThemeSepia
	default:
		base.TextColor = "#333333"
		base.BackgroundColor = "#FFFBF2"
		base.LinkColor = "#1E88E5"
		base.FontFamily = "Georgia, serif"
		base.Theme = ThemeLight
	}
	return base
}

// Validate checks the numeric ranges a client may set.
func (s EpubStyle) Validate() error {
	switch {
	case s.TextSize < MinTextSize || s.TextSize > MaxTextSize:
		return fmt.Errorf("%w: text size %.1f outside %.0f-%.0f", ErrInvalidStyle, s.TextSize, MinTextSize, MaxTextSize)
	case s.LineHeight < 1 || s.LineHeight > 3:
		return fmt.Errorf("%w: line height %.2f outside 1-3", ErrInvalidStyle, s.LineHeight)
	case s.ParagraphSpacing < 0 || s.ParagraphSpacing > 4:
		return fmt.Errorf("%w: paragraph spacing %.2f outside 0-4", ErrInvalidStyle, s.ParagraphSpacing)
	case s.Margin < 0 || s.Margin > 100:
		return fmt.Errorf("%w: margin %d outside 0-100", ErrInvalidStyle, s.Margin)
	case strings.ContainsAny(s.FontFamily, "{};<>"):
		return fmt.Errorf("%w: font family %q", ErrInvalidStyle, s.FontFamily)
	}
	if _, err := ParseTextAlign(string(s.TextAlign)); err != nil {
		return err
	}
	return nil
}

const (
	MinTextSize float64 = 8
	MaxTextSize float64 = 48
)
