package transfer

import (
	"time"
)

// Outcome is the tri-state result of a single item.
type Outcome int

const (
	// Success means the item was transferred.
	Success Outcome = iota
	// Skipped means the item was deliberately not transferred, e.g. a missing local path.
	Skipped
	// Failed means the transfer was attempted and errored.
	Failed
)

// String returns the lowercase outcome name used in logs and metric labels.
func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes what happened to one local path / blob pair.
type Result struct {
	LocalPath string
	BlobName  string
	Outcome   Outcome
	Bytes     int64
	Duration  time.Duration
	// Err is the failure cause for Failed, or the skip reason for Skipped.
	Err error
}

// Report aggregates the results of one operation.
type Report struct {
	Operation  string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []Result
	// Err is set when the operation was aborted as a whole, e.g. the bucket
	// listing failed or the context was cancelled.
	Err error
}

// Add appends a result.
func (r *Report) Add(res Result) {
	r.Results = append(r.Results, res)
}

// Count returns how many results have the given outcome.
func (r Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

// Succeeded is the number of transferred items.
func (r Report) Succeeded() int { return r.Count(Success) }

// Failed is the number of items whose transfer errored.
func (r Report) Failed() int { return r.Count(Failed) }

// Skipped is the number of items that were not attempted.
func (r Report) Skipped() int { return r.Count(Skipped) }

// Bytes is the total payload moved by successful transfers.
func (r Report) Bytes() int64 {
	var total int64
	for _, res := range r.Results {
		if res.Outcome == Success {
			total += res.Bytes
		}
	}
	return total
}

// OK reports whether the operation completed without any failure.
func (r Report) OK() bool {
	return r.Err == nil && r.Failed() == 0
}
