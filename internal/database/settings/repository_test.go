package settings

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/b4ndithelps/wave/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_settings_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Setting{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func TestRepository_SetSetting_New(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.SetSetting("style_theme", "dark")
	require.NoError(t, err)

	setting, err := repo.GetSetting("style_theme")
	require.NoError(t, err)
	assert.Equal(t, "style_theme", setting.Key)
	assert.Equal(t, "dark", setting.Value)
}

func TestRepository_SetSetting_Update(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	// Set initial value
	err := repo.SetSetting("style_theme", "light")
	require.NoError(t, err)

	// Update value
	err = repo.SetSetting("style_theme", "dark")
	require.NoError(t, err)

	setting, err := repo.GetSetting("style_theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", setting.Value)
}

func TestRepository_GetSetting_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetSetting("nonexistent")

	assert.Error(t, err)
}

func TestRepository_DeleteSetting(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	err := repo.SetSetting("to-delete", "value")
	require.NoError(t, err)

	err = repo.DeleteSetting("to-delete")
	require.NoError(t, err)

	_, err = repo.GetSetting("to-delete")
	assert.Error(t, err)
}

func TestRepository_DeleteSetting_NonExistent(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	// Should not error even if key doesn't exist
	err := repo.DeleteSetting("nonexistent")
	assert.NoError(t, err)
}

func TestRepository_GetValue(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, ok, err := repo.GetValue("library_dir")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SetSetting("library_dir", "/books"))

	value, ok, err := repo.GetValue("library_dir")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/books", value)
}

func TestRepository_GetValues_ByPrefix(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.SetSetting("style_theme", "dark"))
	require.NoError(t, repo.SetSetting("style_text_size", "20"))
	require.NoError(t, repo.SetSetting("library_dir", "/books"))

	values, err := repo.GetValues("style_")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"style_theme": "dark", "style_text_size": "20"}, values)

	require.NoError(t, repo.DeleteSettings("style_"))
	values, err = repo.GetValues("style_")
	require.NoError(t, err)
	assert.Empty(t, values)

	_, ok, err := repo.GetValue("library_dir")
	require.NoError(t, err)
	assert.True(t, ok)
}
