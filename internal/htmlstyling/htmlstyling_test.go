package htmlstyling

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b4ndithelps/wave/internal/entities"
)

type memorySettings struct {
	values map[string]string
	fail   bool
}

func newMemorySettings() *memorySettings {
	return &memorySettings{values: map[string]string{}}
}

func (m *memorySettings) GetValues(prefix string) (map[string]string, error) {
	if m.fail {
		return nil, errors.New("db locked")
	}
	out := map[string]string{}
	for k, v := range m.values {
		if strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memorySettings) SetSetting(key, value string) error {
	m.values[key] = value
	return nil
}

func (m *memorySettings) DeleteSettings(prefix string) error {
	for k := range m.values {
		if strings.HasPrefix(k, prefix) {
			delete(m.values, k)
		}
	}
	return nil
}

func TestPreset(t *testing.T) {
	light := Preset(ThemeLight)
	assert.Equal(t, "#333333", light.TextColor)
	assert.Equal(t, "#FFFBF2", light.BackgroundColor)
	assert.Equal(t, "Georgia, serif", light.FontFamily)
	assert.Equal(t, 18.0, light.TextSize)
	assert.Equal(t, 1.6, light.LineHeight)
	assert.Equal(t, TextAlignJustify, light.TextAlign)
	assert.Equal(t, 20, light.Margin)

	assert.Equal(t, "#121212", Preset(ThemeDark).BackgroundColor)
	assert.Equal(t, "#F8F1E3", Preset(ThemeSepia).BackgroundColor)
	assert.Equal(t, ThemeLight, Preset("neon").Theme)
}

func TestEpubStyle_CSS(t *testing.T) {
	css := Preset(ThemeDark).CSS()

	assert.Contains(t, css, "color-scheme: dark;")
	assert.Contains(t, css, "font-size: 18px;")
	assert.Contains(t, css, "line-height: 1.6;")
	assert.Contains(t, css, "margin: 50px 40px;")
	assert.Contains(t, css, "text-align: justify;")
	assert.Contains(t, css, "border-left: 3px solid #555;")

	light := Preset(ThemeLight).CSS()
	assert.Contains(t, light, "color-scheme: light;")
	assert.Contains(t, light, "color: #1E88E5;")
}

func TestManager_CurrentStyle(t *testing.T) {
	t.Run("defaults to the light preset", func(t *testing.T) {
		m := NewManager(newMemorySettings())

		style, err := m.CurrentStyle()
		require.NoError(t, err)
		assert.Equal(t, Preset(ThemeLight), style)
	})

	t.Run("applies stored overrides on top of the theme", func(t *testing.T) {
		store := newMemorySettings()
		store.values[entities.SettingKeyStyleTheme] = "SEPIA"
		store.values[entities.SettingKeyStyleTextSize] = "22.5"
		store.values[entities.SettingKeyStyleTextAlign] = "left"
		store.values[entities.SettingKeyStyleMargin] = "8"
		store.values[entities.SettingKeyStyleLineHeight] = "not-a-number"

		style, err := NewManager(store).CurrentStyle()
		require.NoError(t, err)
		assert.Equal(t, ThemeSepia, style.Theme)
		assert.Equal(t, "#5B4636", style.TextColor)
		assert.Equal(t, 22.5, style.TextSize)
		assert.Equal(t, TextAlignLeft, style.TextAlign)
		assert.Equal(t, 8, style.Margin)
		assert.Equal(t, 1.6, style.LineHeight)
	})

	t.Run("store errors are returned", func(t *testing.T) {
		store := newMemorySettings()
		store.fail = true

		_, err := NewManager(store).CurrentStyle()
		assert.Error(t, err)
	})
}

func TestManager_Apply(t *testing.T) {
	store := newMemorySettings()
	m := NewManager(store)
	before := m.Version()

	size := 24.0
	theme := ThemeDark
	style, err := m.Apply(StyleUpdate{TextSize: &size, Theme: &theme})
	require.NoError(t, err)
	assert.Equal(t, 24.0, style.TextSize)
	assert.Equal(t, "#E0E0E0", style.TextColor)
	assert.Equal(t, "24", store.values[entities.SettingKeyStyleTextSize])
	assert.Equal(t, "dark", store.values[entities.SettingKeyStyleTheme])
	assert.Greater(t, m.Version(), before)

	current, err := m.CurrentStyle()
	require.NoError(t, err)
	assert.Equal(t, style.TextSize, current.TextSize)
	assert.Equal(t, style.Theme, current.Theme)

	t.Run("rejects out of range values without writing", func(t *testing.T) {
		huge := 400.0
		_, err := m.Apply(StyleUpdate{TextSize: &huge})
		assert.ErrorIs(t, err, ErrInvalidStyle)
		assert.Contains(t, err.Error(), "text size 400.0 outside 8-48")
		assert.Equal(t, "24", store.values[entities.SettingKeyStyleTextSize])

		bad := TextAlign("diagonal")
		_, err = m.Apply(StyleUpdate{TextAlign: &bad})
		assert.ErrorIs(t, err, ErrInvalidStyle)

		font := "x; } body { display: none"
		_, err = m.Apply(StyleUpdate{FontFamily: &font})
		assert.ErrorIs(t, err, ErrInvalidStyle)
	})

	t.Run("reset restores the preset", func(t *testing.T) {
		require.NoError(t, m.Reset())
		style, err := m.CurrentStyle()
		require.NoError(t, err)
		assert.Equal(t, Preset(ThemeLight), style)
	})
}

func TestProcessHTML(t *testing.T) {
	style := Preset(ThemeLight)

	t.Run("fragment gets a full document", func(t *testing.T) {
		out, err := ProcessHTML([]byte("<p>Call me Ishmael.</p>"), style, 0)
		require.NoError(t, err)

		s := string(out)
		assert.Contains(t, s, "<html>")
		assert.Contains(t, s, `<meta name="viewport" content="width=device-width, initial-scale=1.0"/>`)
		assert.Contains(t, s, `<style id="wave-style">`)
		assert.Contains(t, s, "<body><p>Call me Ishmael.</p></body>")
		assert.NotContains(t, s, "padding-bottom")
	})

	t.Run("style goes to the top of an existing head", func(t *testing.T) {
		doc := `<html><head><title>One</title><link rel="stylesheet" href="book.css"/></head><body><p>x</p></body></html>`
		out, err := ProcessHTML([]byte(doc), style, 24)
		require.NoError(t, err)

		s := string(out)
		assert.Less(t, strings.Index(s, "wave-style"), strings.Index(s, "book.css"))
		assert.Contains(t, s, "body { padding-bottom: 24px; }")
		assert.Equal(t, 1, strings.Count(s, "<head>"))
	})

	t.Run("existing viewport is kept", func(t *testing.T) {
		doc := `<html><head><meta name="Viewport" content="width=600"/></head><body></body></html>`
		out, err := ProcessHTML([]byte(doc), style, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(strings.ToLower(string(out)), "viewport"))
	})
}
