// Package scheduler runs periodic library maintenance on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/b4ndithelps/wave/internal/settingsstore"
)

// ScanSettings supplies the effective library scan configuration.
type ScanSettings interface {
	GetLibraryScanConfig() settingsstore.LibraryScanConfig
}

// ScanEnqueuer queues a library scan task.
type ScanEnqueuer interface {
	EnqueueScan(ctx context.Context, dir string) (string, error)
}

// LibraryScanScheduler enqueues library scans on the configured schedule.
type LibraryScanScheduler struct {
	settings ScanSettings
	queue    ScanEnqueuer

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
	done      chan struct{}
}

// NewLibraryScanScheduler creates a new scheduler instance
func NewLibraryScanScheduler(settings ScanSettings, queue ScanEnqueuer) *LibraryScanScheduler {
	return &LibraryScanScheduler{
		settings: settings,
		queue:    queue,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if scanning is enabled
func (s *LibraryScanScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	config := s.settings.GetLibraryScanConfig()

	if !config.Enabled {
		log.Printf("[SCHEDULER] Library scan: disabled")
		return nil
	}

	if config.Dir == "" {
		log.Printf("[SCHEDULER] Library scan: library directory not configured, skipping")
		return nil
	}

	if err := settingsstore.ValidateCronSchedule(config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", config.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(config.Schedule, func() {
		if _, err := s.enqueue(context.Background()); err != nil {
			log.Printf("[SCHEDULER] Library scan: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule library scan: %w", err)
	}
	s.entryID = entryID

	done := make(chan struct{})
	s.done = done

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := settingsstore.GetNextRunTime(config.Schedule)
	log.Printf("[SCHEDULER] Library scan: started with schedule '%s' (%s). Next run: %v",
		config.Schedule,
		settingsstore.GetCronDescription(config.Schedule),
		nextRun)

	go func() {
		select {
		case <-ctx.Done():
			s.stop(done)
		case <-done:
		}
	}()

	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *LibraryScanScheduler) Stop() {
	s.stop(nil)
}

// stop stops the run identified by done, or whatever run is active when
// done is nil.
func (s *LibraryScanScheduler) stop(done chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning || (done != nil && done != s.done) {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cron.Remove(s.entryID)

	s.isRunning = false
	close(s.done)
	s.done = nil

	log.Printf("[SCHEDULER] Library scan: stopped")
}

// Reschedule restarts the scheduler with the current settings
func (s *LibraryScanScheduler) Reschedule() error {
	s.mu.RLock()
	wasRunning := s.isRunning
	s.mu.RUnlock()

	if wasRunning {
		s.Stop()
	}

	return s.Start(context.Background())
}

// RunNow enqueues a scan immediately and returns the task ID. It works
// whether or not scheduled scans are enabled.
func (s *LibraryScanScheduler) RunNow(ctx context.Context) (string, error) {
	return s.enqueue(ctx)
}

// IsRunning returns whether the scheduler is active
func (s *LibraryScanScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next scan will be enqueued
func (s *LibraryScanScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *LibraryScanScheduler) enqueue(ctx context.Context) (string, error) {
	config := s.settings.GetLibraryScanConfig()
	if config.Dir == "" {
		return "", settingsstore.ErrLibraryDirNotSet
	}

	id, err := s.queue.EnqueueScan(ctx, config.Dir)
	if err != nil {
		return "", err
	}
	log.Printf("[SCHEDULER] Library scan of %s enqueued as task %s", config.Dir, id)
	return id, nil
}
