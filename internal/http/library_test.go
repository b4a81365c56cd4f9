package http

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b4ndithelps/wave/internal/settingsstore"
)

type fakeScanScheduler struct {
	reschedules int
	runs        int
	err         error
	next        *time.Time
}

func (f *fakeScanScheduler) Reschedule() error {
	f.reschedules++
	return nil
}

func (f *fakeScanScheduler) RunNow(context.Context) (string, error) {
	f.runs++
	if f.err != nil {
		return "", f.err
	}
	return "scan-1", nil
}

func (f *fakeScanScheduler) IsRunning() bool            { return f.next != nil }
func (f *fakeScanScheduler) GetNextRunTime() *time.Time { return f.next }

func newLibraryRouter(t *testing.T) (*testEnv, *fakeScanScheduler, http.Handler) {
	t.Helper()
	t.Setenv("LIBRARY_DIR", "")
	t.Setenv("LIBRARY_SCAN_ENABLED", "")
	t.Setenv("LIBRARY_SCAN_SCHEDULE", "")

	env := newTestEnv(t)
	sched := &fakeScanScheduler{}
	controller := NewLibraryController(env.settings, sched)

	router := newBareRouter()
	router.GET("/api/library/settings", controller.GetSettings)
	router.PUT("/api/library/settings", controller.UpdateSettings)
	router.DELETE("/api/library/settings", controller.ResetSettings)
	router.POST("/api/library/scan", controller.ScanNow)
	return env, sched, router
}

func TestLibraryController_Settings(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		_, _, router := newLibraryRouter(t)

		w := doRequest(t, router, http.MethodGet, "/api/library/settings", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[LibrarySettingsResponse](t, w)
		assert.Empty(t, resp.Config.Dir)
		assert.False(t, resp.Config.Enabled)
		assert.Equal(t, settingsstore.DefaultLibraryScanSchedule, resp.Config.Schedule)
		assert.Equal(t, settingsstore.SourceDefault, resp.Config.ScheduleSource)
		assert.NotEmpty(t, resp.Presets)
		assert.False(t, resp.IsRunning)
	})

	t.Run("update saves and reschedules", func(t *testing.T) {
		env, sched, router := newLibraryRouter(t)
		dir := t.TempDir()
		enabled := true

		w := doRequest(t, router, http.MethodPut, "/api/library/settings", UpdateLibraryRequest{
			Enabled:  &enabled,
			Dir:      dir,
			Schedule: "*/15 * * * *",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decode[LibrarySettingsResponse](t, w)
		assert.Equal(t, dir, resp.Config.Dir)
		assert.Equal(t, settingsstore.SourceDatabase, resp.Config.DirSource)
		assert.True(t, resp.Config.Enabled)
		assert.Equal(t, "*/15 * * * *", resp.Config.Schedule)
		assert.Equal(t, 1, sched.reschedules)

		assert.Equal(t, dir, env.settings.GetLibraryDir())
	})

	t.Run("rejects bad input", func(t *testing.T) {
		_, sched, router := newLibraryRouter(t)
		file := filepath.Join(t.TempDir(), "book.epub")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

		for _, req := range []UpdateLibraryRequest{
			{Dir: "/definitely/not/here"},
			{Dir: file},
			{Schedule: "every tuesday"},
		} {
			w := doRequest(t, router, http.MethodPut, "/api/library/settings", req)
			assert.Equal(t, http.StatusBadRequest, w.Code, "%+v", req)
		}
		assert.Zero(t, sched.reschedules)
	})

	t.Run("reset clears overrides", func(t *testing.T) {
		env, sched, router := newLibraryRouter(t)
		require.NoError(t, env.settings.SetLibraryDir(t.TempDir()))

		w := doRequest(t, router, http.MethodDelete, "/api/library/settings", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[LibrarySettingsResponse](t, w).Config.Dir)
		assert.Equal(t, 1, sched.reschedules)
	})
}

func TestLibraryController_ScanNow(t *testing.T) {
	_, sched, router := newLibraryRouter(t)

	w := doRequest(t, router, http.MethodPost, "/api/library/scan", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "scan-1")

	sched.err = settingsstore.ErrLibraryDirNotSet
	w = doRequest(t, router, http.MethodPost, "/api/library/scan", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeNotConfigured, decode[ErrorResponse](t, w).Code)

	sched.err = errors.New("queue closed")
	w = doRequest(t, router, http.MethodPost, "/api/library/scan", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 3, sched.runs)
}

func TestLibraryController_ScanWithoutScheduler(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/library/scan", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
