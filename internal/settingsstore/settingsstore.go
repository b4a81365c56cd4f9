// Package settingsstore resolves runtime settings that can be changed from
// the API. Priority: database > environment > default.
package settingsstore

import (
	"os"
)

// Setting sources reported alongside resolved values.
const (
	SourceDatabase    = "database"
	SourceEnvironment = "environment"
	SourceDefault     = "default"
)

// Repository is the key/value settings table.
type Repository interface {
	GetValue(key string) (string, bool, error)
	SetSetting(key, value string) error
	DeleteSetting(key string) error
}

type SettingsStore struct {
	repo Repository
}

func New(repo Repository) *SettingsStore {
	return &SettingsStore{repo: repo}
}

// resolve returns the first non-empty value for key from the database, then
// the environment variable env, then def.
func (s *SettingsStore) resolve(key, env, def string) (value, source string) {
	if v, ok, err := s.repo.GetValue(key); err == nil && ok && v != "" {
		return v, SourceDatabase
	}
	if env != "" {
		if v := os.Getenv(env); v != "" {
			return v, SourceEnvironment
		}
	}
	return def, SourceDefault
}

func (s *SettingsStore) clear(keys ...string) error {
	for _, key := range keys {
		if err := s.repo.DeleteSetting(key); err != nil {
			return err
		}
	}
	return nil
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}
