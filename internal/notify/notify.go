// Package notify publishes a summary of each bucketsync run.
// Publishing is best-effort: callers log failures and carry on.
package notify

import (
	"context"
	"time"
)

// Summary describes a finished run.
type Summary struct {
	RunID      string    `json:"run_id"`
	Operation  string    `json:"operation"`
	Bucket     string    `json:"bucket"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	Bytes      int64     `json:"bytes"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Publisher sends run summaries somewhere.
type Publisher interface {
	// Publish sends the summary and waits for the backend to accept it.
	Publish(ctx context.Context, summary Summary) error

	// Close cleans up any client connections and resources.
	Close() error
}

// NoOpPublisher discards every summary.
type NoOpPublisher struct{}

// Publish for NoOpPublisher does nothing and returns nil.
func (n *NoOpPublisher) Publish(_ context.Context, _ Summary) error { return nil }

// Close for NoOpPublisher does nothing and returns nil.
func (n *NoOpPublisher) Close() error { return nil }
