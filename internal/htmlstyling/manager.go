package htmlstyling

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"

	"github.com/b4ndithelps/wave/internal/entities"
)

var ErrInvalidStyle = errors.New("invalid style")

// styleKeyPrefix is shared by every SettingKeyStyle* key.
const styleKeyPrefix = "style_"

// SettingsStore is the subset of the settings repository the manager needs.
type SettingsStore interface {
	GetValues(prefix string) (map[string]string, error)
	SetSetting(key, value string) error
	DeleteSettings(prefix string) error
}

// StyleUpdate is a partial change to the reader style. Nil fields are left
// as they are.
type StyleUpdate struct {
	Theme            *ThemeType `json:"theme,omitempty"`
	TextSize         *float64   `json:"text_size,omitempty"`
	LineHeight       *float64   `json:"line_height,omitempty"`
	FontFamily       *string    `json:"font_family,omitempty"`
	ParagraphSpacing *float64   `json:"paragraph_spacing,omitempty"`
	TextAlign        *TextAlign `json:"text_align,omitempty"`
	Margin           *int       `json:"margin,omitempty"`
}

// Manager resolves the current style from the theme preset and the user's
// stored overrides.
type Manager struct {
	store SettingsStore

	// bumped on every write
	mu      sync.RWMutex
	version uint64
}

func NewManager(store SettingsStore) *Manager {
	return &Manager{store: store}
}

// Version identifies the current style. It changes whenever the style is
// written.
func (m *Manager) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// CurrentStyle returns the theme preset with user overrides applied.
// Unparseable stored values are skipped.
func (m *Manager) CurrentStyle() (EpubStyle, error) {
	values, err := m.store.GetValues(styleKeyPrefix)
	if err != nil {
		return EpubStyle{}, fmt.Errorf("load style settings: %w", err)
	}

	theme := ThemeLight
	if raw, ok := values[entities.SettingKeyStyleTheme]; ok {
		if t, err := ParseTheme(raw); err == nil {
			theme = t
		} else {
			log.Printf("[STYLE] Ignoring stored theme %q", raw)
		}
	}
	style := Preset(theme)

	if v, ok := parseFloat(values, entities.SettingKeyStyleTextSize); ok {
		style.TextSize = v
	}
	if v, ok := parseFloat(values, entities.SettingKeyStyleLineHeight); ok {
		style.LineHeight = v
	}
	if v, ok := values[entities.SettingKeyStyleFontFamily]; ok && v != "" {
		style.FontFamily = v
	}
	if v, ok := parseFloat(values, entities.SettingKeyStyleParagraphSpacing); ok {
		style.ParagraphSpacing = v
	}
	if raw, ok := values[entities.SettingKeyStyleTextAlign]; ok {
		if a, err := ParseTextAlign(raw); err == nil {
			style.TextAlign = a
		}
	}
	if raw, ok := values[entities.SettingKeyStyleMargin]; ok {
		if v, err := strconv.Atoi(raw); err == nil {
			style.Margin = v
		}
	}

	return style, nil
}

// Apply validates update against the current style and stores the changed
// fields.
func (m *Manager) Apply(update StyleUpdate) (EpubStyle, error) {
	current, err := m.CurrentStyle()
	if err != nil {
		return EpubStyle{}, err
	}

	next := current
	writes := map[string]string{}

	if update.Theme != nil {
		theme, err := ParseTheme(string(*update.Theme))
		if err != nil {
			return EpubStyle{}, err
		}
		// switching theme swaps colours but keeps typography overrides
		preset := Preset(theme)
		next.Theme = theme
		next.TextColor = preset.TextColor
		next.BackgroundColor = preset.BackgroundColor
		next.LinkColor = preset.LinkColor
		writes[entities.SettingKeyStyleTheme] = string(theme)
	}
	if update.TextSize != nil {
		next.TextSize = *update.TextSize
		writes[entities.SettingKeyStyleTextSize] = formatNumber(*update.TextSize)
	}
	if update.LineHeight != nil {
		next.LineHeight = *update.LineHeight
		writes[entities.SettingKeyStyleLineHeight] = formatNumber(*update.LineHeight)
	}
	if update.FontFamily != nil {
		next.FontFamily = *update.FontFamily
		writes[entities.SettingKeyStyleFontFamily] = *update.FontFamily
	}
	if update.ParagraphSpacing != nil {
		next.ParagraphSpacing = *update.ParagraphSpacing
		writes[entities.SettingKeyStyleParagraphSpacing] = formatNumber(*update.ParagraphSpacing)
	}
	if update.TextAlign != nil {
		align, err := ParseTextAlign(string(*update.TextAlign))
		if err != nil {
			return EpubStyle{}, err
		}
		next.TextAlign = align
		writes[entities.SettingKeyStyleTextAlign] = string(align)
	}
	if update.Margin != nil {
		next.Margin = *update.Margin
		writes[entities.SettingKeyStyleMargin] = strconv.Itoa(*update.Margin)
	}

	if err := next.Validate(); err != nil {
		return EpubStyle{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for key, value := range writes {
		if err := m.store.SetSetting(key, value); err != nil {
			return EpubStyle{}, fmt.Errorf("save %s: %w", key, err)
		}
	}
	if len(writes) > 0 {
		m.version++
	}
	return next, nil
}

// Reset drops every override so the light preset applies again.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.DeleteSettings(styleKeyPrefix); err != nil {
		return fmt.Errorf("reset style: %w", err)
	}
	m.version++
	return nil
}

func parseFloat(values map[string]string, key string) (float64, bool) {
	raw, ok := values[key]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("[STYLE] Ignoring stored %s %q", key, raw)
		return 0, false
	}
	return v, true
}
