package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	require.NotNil(t, client)

	// Verify tasks database was created
	tasksDBPath := filepath.Join(tmpDir, "test-tasks.db")
	_, err = os.Stat(tasksDBPath)
	assert.NoError(t, err, "tasks database should be created")

	err = client.Close()
	assert.NoError(t, err)
}

func TestDatabasePath(t *testing.T) {
	assert.Equal(t, "/data/wave-tasks.db", DatabasePath("/data/wave.db"))
	assert.Equal(t, "library-tasks", DatabasePath("library"))
	assert.Equal(t, filepath.Join("var", "lib", "wave.v2-tasks.sqlite"), DatabasePath(filepath.Join("var", "lib", "wave.v2.sqlite")))
}

func TestClientStartStop(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	defer client.Close()

	// Start client in background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.Start(ctx)

	// Give it time to start
	time.Sleep(50 * time.Millisecond)

	// Stop should complete successfully
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()

	success := client.Stop(stopCtx)
	assert.True(t, success, "stop should succeed gracefully")
}

func TestClientStopWithoutStart(t *testing.T) {
	client, err := NewClient(filepath.Join(t.TempDir(), "test.db"), DefaultConfig())
	require.NoError(t, err)
	defer client.Close()

	assert.True(t, client.Stop(context.Background()))
}

func TestImportBookTaskConfig(t *testing.T) {
	task := ImportBookTask{Path: "/books/dune.epub"}
	cfg := task.Config()

	assert.Equal(t, "import_book", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.Backoff)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestScanLibraryTaskConfig(t *testing.T) {
	task := ScanLibraryTask{Dir: "/books"}
	cfg := task.Config()

	assert.Equal(t, "scan_library", cfg.Name)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, 30*time.Minute, cfg.Timeout)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
}

func TestEnqueueHelpers(t *testing.T) {
	tmpDir := t.TempDir()
	client, err := NewClient(filepath.Join(tmpDir, "test.db"), DefaultConfig())
	require.NoError(t, err)
	defer client.Close()

	client.Register(NewImportBookQueue(nil), NewScanLibraryQueue(nil, nil, nil))
	ctx := context.Background()

	importID, err := client.EnqueueImport(ctx, "/books/dune.epub")
	require.NoError(t, err)
	assert.NotEmpty(t, importID)

	scanID, err := client.EnqueueScan(ctx, "/books")
	require.NoError(t, err)
	assert.NotEqual(t, importID, scanID)

	status, err := client.Status(ctx, scanID)
	require.NoError(t, err)
	assert.Equal(t, backlite.TaskStatusPending, status)

	require.NoError(t, client.EnqueueImports(ctx, nil))
	require.NoError(t, client.EnqueueImports(ctx, []string{"/books/a.epub", "/books/b.epub"}))
}
