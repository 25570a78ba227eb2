package pipeline

import (
	"fmt"
	"time"
)

// FailureKind classifies per-item failures. Fatal pre-run conditions
// (invalid configuration, unloadable watermark) are plain errors returned by
// Run and never appear as item results.
type FailureKind int

const (
	// FailureNone marks a successful result.
	FailureNone FailureKind = iota

	// FailureUnsupportedInput covers undecodable or corrupt source files.
	FailureUnsupportedInput

	// FailureWriteFailed covers encode and output I/O errors.
	FailureWriteFailed

	// FailureCancelled marks items never claimed before cancellation.
	FailureCancelled
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureUnsupportedInput:
		return "unsupported_or_corrupt_input"
	case FailureWriteFailed:
		return "write_failed"
	case FailureCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// MarshalText lets FailureKind render as its name in JSON reports.
func (k FailureKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the name produced by MarshalText back into a kind.
func (k *FailureKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "none":
		*k = FailureNone
	case "unsupported_or_corrupt_input":
		*k = FailureUnsupportedInput
	case "write_failed":
		*k = FailureWriteFailed
	case "cancelled":
		*k = FailureCancelled
	default:
		return fmt.Errorf("unknown failure kind: %q", text)
	}
	return nil
}

// Item is one unit of work: a source file, or one page of a PDF document.
type Item struct {
	// Source is the input file path.
	Source string `json:"source"`

	// Page is the 1-based PDF page number, or 0 for plain raster files.
	Page int `json:"page,omitempty"`

	// Output is the destination path the transformed image is written to.
	Output string `json:"output"`
}

// Label renders the item for logs and error messages.
func (it Item) Label() string {
	if it.Page > 0 {
		return fmt.Sprintf("%s#page%d", it.Source, it.Page)
	}
	return it.Source
}

// Result is the terminal outcome of one Item. Exactly one Result is produced
// per Item; it is either a success (Kind == FailureNone) with output details,
// or a typed failure with a message.
type Result struct {
	Source  string      `json:"source"`
	Page    int         `json:"page,omitempty"`
	Output  string      `json:"output,omitempty"`
	Width   int         `json:"width,omitempty"`
	Height  int         `json:"height,omitempty"`
	Bytes   int64       `json:"bytes,omitempty"`
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message,omitempty"`
}

// Failed reports whether the item ended in a failure.
func (r Result) Failed() bool {
	return r.Kind != FailureNone
}

// Progress is an immutable snapshot handed to progress callbacks after each
// item completes. It is passed by value; callbacks never share mutable state
// with the workers.
type Progress struct {
	Completed int
	Total     int
	Last      Result
}

// Report is the aggregate outcome of one run. It is owned by the
// orchestrator while the run is active and immutable once returned.
type Report struct {
	// Results holds exactly one entry per input item, in input order.
	Results []Result `json:"results"`

	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Partial is set when the run was cancelled before draining the queue.
	Partial bool `json:"partial,omitempty"`
}

// Total returns the number of items the run was asked to process.
func (r *Report) Total() int {
	return len(r.Results)
}

// Duration returns the wall-clock time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
