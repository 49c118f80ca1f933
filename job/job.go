// Package job runs an area or track request to completion in the
// background and exposes its progress to a polling caller. A Job's state
// (status, last progress message, and the geocaches gathered so far) is
// guarded by a mutex so a poller never observes a torn update.
package job

import (
	"sync"
	"time"

	"geotrailfinder/entities"
)

// Job tracks one in-flight (or completed) pipeline run.
type Job struct {
	ID      string
	Started time.Time

	mu        sync.Mutex
	status    entities.JobStatus
	message   string
	geocaches []entities.Geocache
	err       error
}

// State is an immutable snapshot of a Job, safe to read without the lock.
type State struct {
	Status    entities.JobStatus
	Message   string
	Geocaches []entities.Geocache
	Err       error
}

func newJob(id string) *Job {
	return &Job{
		ID:      id,
		Started: time.Now(),
		status:  entities.JobRunning,
	}
}

// Snapshot returns the job's current state.
func (j *Job) Snapshot() State {
	j.mu.Lock()
	defer j.mu.Unlock()

	gcs := make([]entities.Geocache, len(j.geocaches))
	copy(gcs, j.geocaches)

	return State{
		Status:    j.status,
		Message:   j.message,
		Geocaches: gcs,
		Err:       j.err,
	}
}

// progress updates the job's message without altering its geocache list,
// used for the "Discover tile i/N: ..." / "Downloading N geocaches" stage
// messages.
func (j *Job) progress(message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.message = message
}

// GetMessage returns the job's last progress message.
func (j *Job) GetMessage() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.message
}

// GetGeocaches returns the job's geocaches and true, unless the list is
// still empty.
func (j *Job) GetGeocaches() ([]entities.Geocache, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.geocaches) == 0 {
		return nil, false
	}
	gcs := make([]entities.Geocache, len(j.geocaches))
	copy(gcs, j.geocaches)
	return gcs, true
}

// finish marks the job complete with its final geocache list. The message
// is the literal string "Finished": callers distinguish "done, empty" from
// "not done yet" by checking for it.
func (j *Job) finish(geocaches []entities.Geocache) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = entities.JobFinished
	j.message = "Finished"
	j.geocaches = geocaches
}

// fail marks the job failed with err, preserving any partial results already recorded.
func (j *Job) fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = entities.JobFailed
	j.err = err
}
