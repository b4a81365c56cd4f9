package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/b4ndithelps/wave/internal/settingsstore"
)

// LibrarySettings reads and writes the library scan settings.
type LibrarySettings interface {
	GetLibraryScanConfigInfo() settingsstore.LibraryScanConfigInfo
	SetLibraryDir(dir string) error
	SetLibraryScanSchedule(schedule string) error
	SetLibraryScanEnabled(enabled bool) error
	ClearLibraryScanSettings() error
}

// ScanScheduler runs library scans.
type ScanScheduler interface {
	Reschedule() error
	RunNow(ctx context.Context) (string, error)
	IsRunning() bool
	GetNextRunTime() *time.Time
}

// LibraryController handles library scan settings and manual scans
type LibraryController struct {
	settings  LibrarySettings
	scheduler ScanScheduler
}

func NewLibraryController(settings LibrarySettings, sched ScanScheduler) *LibraryController {
	return &LibraryController{settings: settings, scheduler: sched}
}

// LibrarySettingsResponse is the response for GET /api/library/settings
type LibrarySettingsResponse struct {
	Config    settingsstore.LibraryScanConfigInfo `json:"config"`
	NextRun   *time.Time                          `json:"next_run,omitempty"`
	IsRunning bool                                `json:"is_running"`
	Presets   []SchedulePreset                    `json:"presets"`
}

// SchedulePreset is a predefined schedule option
type SchedulePreset struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

var schedulePresets = []SchedulePreset{
	{Label: "Every 15 minutes", Value: "*/15 * * * *", Description: "Runs at :00, :15, :30, :45"},
	{Label: "Every hour", Value: "0 * * * *", Description: "Runs at the top of every hour"},
	{Label: "Every 6 hours", Value: "0 */6 * * *", Description: "Runs at midnight, 6am, noon, 6pm"},
	{Label: "Daily at midnight", Value: "0 0 * * *", Description: "Runs once daily at 00:00"},
}

// UpdateLibraryRequest is the request body for PUT /api/library/settings
type UpdateLibraryRequest struct {
	Enabled  *bool  `json:"enabled"`
	Dir      string `json:"dir"`
	Schedule string `json:"schedule"`
}

// GetSettings handles GET /api/library/settings
func (lc *LibraryController) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, lc.response())
}

// UpdateSettings handles PUT /api/library/settings. Empty fields are left
// unchanged.
func (lc *LibraryController) UpdateSettings(c *gin.Context) {
	var req UpdateLibraryRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.Dir != "" {
		dir, err := validateLibraryDirectory(req.Dir)
		if err != nil {
			respondBadRequest(c, "invalid library directory: "+err.Error())
			return
		}
		if err := lc.settings.SetLibraryDir(dir); err != nil {
			respondInternalError(c, err, "save library dir")
			return
		}
	}

	if req.Schedule != "" {
		if err := settingsstore.ValidateCronSchedule(req.Schedule); err != nil {
			respondBadRequest(c, "invalid cron schedule: "+err.Error())
			return
		}
		if err := lc.settings.SetLibraryScanSchedule(req.Schedule); err != nil {
			respondInternalError(c, err, "save scan schedule")
			return
		}
	}

	if req.Enabled != nil {
		if err := lc.settings.SetLibraryScanEnabled(*req.Enabled); err != nil {
			respondInternalError(c, err, "save scan enabled")
			return
		}
	}

	if lc.scheduler != nil {
		if err := lc.scheduler.Reschedule(); err != nil {
			respondInternalError(c, err, "reschedule library scan")
			return
		}
	}
	c.JSON(http.StatusOK, lc.response())
}

// ResetSettings handles DELETE /api/library/settings. Stored overrides are
// cleared so environment values and defaults apply again.
func (lc *LibraryController) ResetSettings(c *gin.Context) {
	if err := lc.settings.ClearLibraryScanSettings(); err != nil {
		respondInternalError(c, err, "reset library settings")
		return
	}
	if lc.scheduler != nil {
		if err := lc.scheduler.Reschedule(); err != nil {
			respondInternalError(c, err, "reschedule library scan")
			return
		}
	}
	c.JSON(http.StatusOK, lc.response())
}

// ScanNow handles POST /api/library/scan
func (lc *LibraryController) ScanNow(c *gin.Context) {
	if lc.scheduler == nil {
		respondError(c, http.StatusServiceUnavailable, CodeNotConfigured, "background tasks are disabled")
		return
	}

	id, err := lc.scheduler.RunNow(c.Request.Context())
	if errors.Is(err, settingsstore.ErrLibraryDirNotSet) {
		respondError(c, http.StatusBadRequest, CodeNotConfigured, err.Error())
		return
	}
	if err != nil {
		respondInternalError(c, err, "enqueue library scan")
		return
	}
	respondAccepted(c, "library scan enqueued", gin.H{"task_id": id})
}

func (lc *LibraryController) response() LibrarySettingsResponse {
	resp := LibrarySettingsResponse{
		Config:  lc.settings.GetLibraryScanConfigInfo(),
		Presets: schedulePresets,
	}
	if lc.scheduler != nil {
		resp.NextRun = lc.scheduler.GetNextRunTime()
		resp.IsRunning = lc.scheduler.IsRunning()
	}
	return resp
}

// validateLibraryDirectory normalizes a directory path and checks that it
// exists.
func validateLibraryDirectory(rawPath string) (string, error) {
	path := strings.TrimSpace(rawPath)
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if strings.ContainsRune(path, '\x00') {
		return "", fmt.Errorf("path contains invalid characters")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path format: %w", err)
	}
	cleanPath := filepath.Clean(absPath)

	info, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("directory does not exist")
		}
		if os.IsPermission(err) {
			return "", fmt.Errorf("permission denied")
		}
		return "", fmt.Errorf("cannot access path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path must be a directory, not a file")
	}
	return cleanPath, nil
}
