// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upload

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// JOB STATUS
// =============================================================================

// JobStatus represents the current state of an upload job.
type JobStatus string

const (
	// JobQueued indicates the request has not been sent yet
	JobQueued JobStatus = "Queued"

	// JobRunning indicates the progress stream is being consumed
	JobRunning JobStatus = "Running"

	// JobComplete indicates the stream ended normally
	JobComplete JobStatus = "Complete"

	// JobFailed indicates the request or the stream failed
	JobFailed JobStatus = "Failed"

	// JobCanceled indicates the caller cancelled the upload
	JobCanceled JobStatus = "Canceled"
)

// String returns the string representation of the job status.
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions are possible.
func (s JobStatus) IsTerminal() bool {
	return s == JobComplete || s == JobFailed || s == JobCanceled
}

// =============================================================================
// JOB STRUCTURE
// =============================================================================

// Job tracks one upload request.
type Job struct {
	// ID is a unique identifier for this job
	ID string

	// Collection is the target collection
	Collection string

	// Files are the display names of the uploaded files
	Files []string

	// Status is the current state of the job
	Status JobStatus

	// StartTime is when the request was sent
	StartTime time.Time

	// EndTime is when the job reached a terminal state
	EndTime time.Time

	// LastMessage is the last status text shown for the job
	LastMessage string

	// Error is the error message if the job failed
	Error string

	// Progress is the last known percentage (0-100)
	Progress int

	// TaskIDs are the background summary tasks the server started
	TaskIDs []string

	mu sync.RWMutex
}

// NewJob creates a queued job.
func NewJob(collection string, files []string) *Job {
	return &Job{
		ID:         uuid.New().String(),
		Collection: collection,
		Files:      append([]string(nil), files...),
		Status:     JobQueued,
	}
}

// =============================================================================
// JOB METHODS
// =============================================================================

// SetStatus updates the job status (thread-safe).
// Valid transitions: Queued -> Running -> Complete/Failed/Canceled
func (j *Job) SetStatus(status JobStatus) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !isValidTransition(j.Status, status) {
		return fmt.Errorf("invalid status transition from %s to %s", j.Status, status)
	}

	j.Status = status
	switch {
	case status == JobRunning && j.StartTime.IsZero():
		j.StartTime = time.Now()
	case status.IsTerminal() && j.EndTime.IsZero():
		j.EndTime = time.Now()
	}
	return nil
}

func isValidTransition(from, to JobStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case JobQueued:
		return to == JobRunning || to == JobCanceled || to == JobFailed
	case JobRunning:
		return to.IsTerminal()
	default:
		return false
	}
}

// GetStatus returns the current status (thread-safe).
func (j *Job) GetStatus() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// SetProgress updates the progress, clamped to 0..100 (thread-safe).
func (j *Job) SetProgress(progress int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	j.Progress = progress
}

// GetProgress returns the current progress (thread-safe).
func (j *Job) GetProgress() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Progress
}

// SetMessage records the last status text (thread-safe).
func (j *Job) SetMessage(msg string) {
	j.mu.Lock()
	j.LastMessage = msg
	j.mu.Unlock()
}

// AddTaskID records a background task started for this job (thread-safe).
func (j *Job) AddTaskID(id string) {
	if id == "" {
		return
	}
	j.mu.Lock()
	j.TaskIDs = append(j.TaskIDs, id)
	j.mu.Unlock()
}

// Fail marks the job failed with err (thread-safe).
func (j *Job) Fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status.IsTerminal() {
		return
	}
	if err != nil {
		j.Error = err.Error()
	}
	j.Status = JobFailed
	j.EndTime = time.Now()
}

// Duration returns how long the job ran, or has been running.
func (j *Job) Duration() time.Duration {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.StartTime.IsZero() {
		return 0
	}
	if j.EndTime.IsZero() {
		return time.Since(j.StartTime)
	}
	return j.EndTime.Sub(j.StartTime)
}

// Snapshot returns a copy safe to read without locking.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return JobSnapshot{
		ID:          j.ID,
		Collection:  j.Collection,
		Files:       append([]string(nil), j.Files...),
		Status:      j.Status,
		Progress:    j.Progress,
		LastMessage: j.LastMessage,
		Error:       j.Error,
		TaskIDs:     append([]string(nil), j.TaskIDs...),
	}
}

// JobSnapshot is an immutable copy of a Job.
type JobSnapshot struct {
	ID          string
	Collection  string
	Files       []string
	Status      JobStatus
	Progress    int
	LastMessage string
	Error       string
	TaskIDs     []string
}
