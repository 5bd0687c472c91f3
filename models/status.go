package models

// SchedulerStatus is the read-only view of the snapshot job state served by /health
type SchedulerStatus struct {
	IsRunning        bool    `json:"isRunning"`
	LastRunTimestamp *string `json:"lastRunTimestamp"`
	LastRunID        string  `json:"lastRunId,omitempty"`
	NextRun          *string `json:"nextRun"`
}
