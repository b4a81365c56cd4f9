package settingsstore

import (
	"errors"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/b4ndithelps/wave/internal/entities"
)

const (
	EnvLibraryDir          = "LIBRARY_DIR"
	EnvLibraryScanEnabled  = "LIBRARY_SCAN_ENABLED"
	EnvLibraryScanSchedule = "LIBRARY_SCAN_SCHEDULE"

	// DefaultLibraryScanSchedule scans once an hour.
	DefaultLibraryScanSchedule = "0 * * * *"
)

var ErrLibraryDirNotSet = errors.New("library directory is not configured")

// LibraryScanConfig represents the effective configuration for library scans
type LibraryScanConfig struct {
	Enabled  bool   `json:"enabled"`
	Dir      string `json:"dir"`
	Schedule string `json:"schedule"`
}

// LibraryScanConfigInfo includes source information for each field
type LibraryScanConfigInfo struct {
	Enabled       bool   `json:"enabled"`
	EnabledSource string `json:"enabled_source"`

	Dir       string `json:"dir"`
	DirSource string `json:"dir_source"`

	Schedule            string     `json:"schedule"`
	ScheduleSource      string     `json:"schedule_source"`
	ScheduleDescription string     `json:"schedule_description"`
	NextRunAt           *time.Time `json:"next_run_at,omitempty"`

	LastScanAt *time.Time `json:"last_scan_at,omitempty"`
}

// GetLibraryDir returns the library directory, or "" when unset.
func (s *SettingsStore) GetLibraryDir() string {
	v, _ := s.resolve(entities.SettingKeyLibraryDir, EnvLibraryDir, "")
	return v
}

// SetLibraryDir saves the library directory to database
func (s *SettingsStore) SetLibraryDir(dir string) error {
	return s.repo.SetSetting(entities.SettingKeyLibraryDir, dir)
}

// RequireLibraryDir returns the library directory or ErrLibraryDirNotSet.
func (s *SettingsStore) RequireLibraryDir() (string, error) {
	dir := s.GetLibraryDir()
	if dir == "" {
		return "", ErrLibraryDirNotSet
	}
	return dir, nil
}

// GetLibraryScanEnabled returns whether scheduled scans are enabled
func (s *SettingsStore) GetLibraryScanEnabled() bool {
	v, _ := s.resolve(entities.SettingKeyLibraryScanEnabled, EnvLibraryScanEnabled, "false")
	return parseBool(v)
}

func (s *SettingsStore) SetLibraryScanEnabled(enabled bool) error {
	return s.repo.SetSetting(entities.SettingKeyLibraryScanEnabled, strconv.FormatBool(enabled))
}

// GetLibraryScanSchedule returns the cron schedule for library scans
func (s *SettingsStore) GetLibraryScanSchedule() string {
	v, _ := s.resolve(entities.SettingKeyLibraryScanSchedule, EnvLibraryScanSchedule, DefaultLibraryScanSchedule)
	return v
}

// SetLibraryScanSchedule validates and saves the schedule
func (s *SettingsStore) SetLibraryScanSchedule(schedule string) error {
	if err := ValidateCronSchedule(schedule); err != nil {
		return err
	}
	return s.repo.SetSetting(entities.SettingKeyLibraryScanSchedule, schedule)
}

// GetLibraryScanConfig returns the effective configuration
func (s *SettingsStore) GetLibraryScanConfig() LibraryScanConfig {
	return LibraryScanConfig{
		Enabled:  s.GetLibraryScanEnabled(),
		Dir:      s.GetLibraryDir(),
		Schedule: s.GetLibraryScanSchedule(),
	}
}

// GetLibraryScanConfigInfo returns the configuration with source information
func (s *SettingsStore) GetLibraryScanConfigInfo() LibraryScanConfigInfo {
	info := LibraryScanConfigInfo{LastScanAt: s.GetLibraryScanLastAt()}

	var enabled string
	enabled, info.EnabledSource = s.resolve(entities.SettingKeyLibraryScanEnabled, EnvLibraryScanEnabled, "false")
	info.Enabled = parseBool(enabled)
	info.Dir, info.DirSource = s.resolve(entities.SettingKeyLibraryDir, EnvLibraryDir, "")
	info.Schedule, info.ScheduleSource = s.resolve(entities.SettingKeyLibraryScanSchedule, EnvLibraryScanSchedule, DefaultLibraryScanSchedule)
	info.ScheduleDescription = GetCronDescription(info.Schedule)
	if info.Enabled {
		info.NextRunAt, _ = GetNextRunTime(info.Schedule)
	}
	return info
}

// GetLibraryScanLastAt returns when the last scan completed, or nil.
func (s *SettingsStore) GetLibraryScanLastAt() *time.Time {
	v, ok, err := s.repo.GetValue(entities.SettingKeyLibraryScanLastAt)
	if err != nil || !ok || v == "" {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil
	}
	return &ts
}

// SetLibraryScanLastAt records when a scan completed
func (s *SettingsStore) SetLibraryScanLastAt(t time.Time) error {
	return s.repo.SetSetting(entities.SettingKeyLibraryScanLastAt, t.UTC().Format(time.RFC3339))
}

// ClearLibraryScanSettings clears all database overrides, reverting to env/default
func (s *SettingsStore) ClearLibraryScanSettings() error {
	return s.clear(
		entities.SettingKeyLibraryDir,
		entities.SettingKeyLibraryScanEnabled,
		entities.SettingKeyLibraryScanSchedule,
	)
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule validates a cron schedule string
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// GetCronDescription returns a human-readable description of a cron schedule
func GetCronDescription(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "*/15 * * * *":
		return "Every 15 minutes"
	case "*/30 * * * *":
		return "Every 30 minutes"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	case "0 0 * * 0":
		return "Weekly on Sunday at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// GetNextRunTime calculates when the next scan will run based on the schedule
func GetNextRunTime(schedule string) (*time.Time, error) {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	next := sched.Next(time.Now())
	return &next, nil
}
