package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b4ndithelps/wave/internal/htmlstyling"
)

func TestStyleController(t *testing.T) {
	t.Run("defaults to the light preset", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(t, http.MethodGet, "/api/style", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[StyleResponse](t, w)
		assert.Equal(t, htmlstyling.Preset(htmlstyling.ThemeLight), resp.Style)
		assert.Contains(t, resp.CSS, "font-size: 18px")
	})

	t.Run("partial update keeps other fields", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(t, http.MethodPut, "/api/style", map[string]any{"theme": "dark", "text_size": 24})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decode[StyleResponse](t, w)
		assert.Equal(t, htmlstyling.ThemeDark, resp.Style.Theme)
		assert.Equal(t, htmlstyling.Preset(htmlstyling.ThemeDark).BackgroundColor, resp.Style.BackgroundColor)
		assert.Equal(t, 24.0, resp.Style.TextSize)
		assert.Contains(t, resp.CSS, "font-size: 24px")

		w = env.do(t, http.MethodPut, "/api/style", map[string]any{"margin": 40})
		require.Equal(t, http.StatusOK, w.Code)
		resp = decode[StyleResponse](t, w)
		assert.Equal(t, 40, resp.Style.Margin)
		assert.Equal(t, 24.0, resp.Style.TextSize)
		assert.Equal(t, htmlstyling.ThemeDark, resp.Style.Theme)
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		env := newTestEnv(t)

		for _, body := range []map[string]any{
			{"theme": "neon"},
			{"text_size": 2},
			{"text_align": "diagonal"},
			{"font_family": "x; } body { display: none"},
		} {
			w := env.do(t, http.MethodPut, "/api/style", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, "%v", body)
		}

		w := env.do(t, http.MethodGet, "/api/style", nil)
		assert.Equal(t, htmlstyling.Preset(htmlstyling.ThemeLight), decode[StyleResponse](t, w).Style)
	})

	t.Run("reset restores the preset", func(t *testing.T) {
		env := newTestEnv(t)
		require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/api/style", map[string]any{"theme": "sepia", "line_height": 2}).Code)

		w := env.do(t, http.MethodDelete, "/api/style", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, htmlstyling.Preset(htmlstyling.ThemeLight), decode[StyleResponse](t, w).Style)
	})

	t.Run("open books pick up the new style", func(t *testing.T) {
		env := newTestEnv(t)
		book := env.addBook(t, "dispossessed.epub", "The Dispossessed")
		base := "/api/reader/" + itoa(book.ID)
		require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, base+"/open", nil).Code)

		w := env.do(t, http.MethodGet, base+"/spine/0", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "font-size: 18px")

		require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/api/style", map[string]any{"text_size": 22}).Code)

		w = env.do(t, http.MethodGet, base+"/spine/0", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "font-size: 22px")
	})
}
