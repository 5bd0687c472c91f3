package jobs

import (
	"sync"
	"time"

	"github.com/fenilmodi00/market-snapshot-bot/models"
)

// StatusTracker holds the process-wide scheduler state shared by the snapshot
// job (writer) and the health endpoint (reader)
type StatusTracker struct {
	mutex     sync.RWMutex
	running   bool
	lastRun   *time.Time
	lastRunID string
	nextRun   *time.Time
	location  *time.Location
}

// NewStatusTracker creates a tracker that renders timestamps in loc
func NewStatusTracker(loc *time.Location) *StatusTracker {
	if loc == nil {
		loc = time.UTC
	}
	return &StatusTracker{location: loc}
}

// SetRunning marks whether the periodic trigger is active
func (s *StatusTracker) SetRunning(running bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.running = running
	if !running {
		s.nextRun = nil
	}
}

// SetNextRun records when the trigger fires next
func (s *StatusTracker) SetNextRun(next time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if next.IsZero() {
		s.nextRun = nil
		return
	}
	s.nextRun = &next
}

// RecordSuccess stores the time and id of the last run that published a post.
// Concurrent runs resolve as last write wins.
func (s *StatusTracker) RecordSuccess(at time.Time, runID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.lastRun = &at
	s.lastRunID = runID
}

// Snapshot returns a copy of the current status
func (s *StatusTracker) Snapshot() models.SchedulerStatus {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	status := models.SchedulerStatus{
		IsRunning: s.running,
		LastRunID: s.lastRunID,
	}
	if s.lastRun != nil {
		formatted := s.lastRun.In(s.location).Format(time.RFC3339)
		status.LastRunTimestamp = &formatted
	}
	if s.nextRun != nil {
		formatted := s.nextRun.In(s.location).Format(time.RFC3339)
		status.NextRun = &formatted
	}
	return status
}
