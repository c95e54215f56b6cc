// Package jobcore defines the contract between the trim service and its
// execution backends, plus the event hub that fans job progress out to
// websocket subscribers.
package jobcore

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrQueueFull is returned by a dispatcher when the backend cannot
	// accept more work right now.
	ErrQueueFull = errors.New("job queue is full")
	// ErrDispatcherStopped is returned once the backend has shut down.
	ErrDispatcherStopped = errors.New("job dispatcher stopped")
)

// TrimRequest is the unit of work handed to a dispatcher. JSON tags keep it
// serializable for the Redis-backed queue.
type TrimRequest struct {
	JobID      string  `json:"job_id"`
	VideoID    string  `json:"video_id"`
	InputPath  string  `json:"input_path"`
	OutputPath string  `json:"output_path"`
	OutputName string  `json:"output_name"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
}

type JobStage uint8

const (
	JobStageQueued JobStage = iota + 1
	JobStagePreparing
	JobStageProcessing
	JobStageFinalizing
	JobStageSucceeded
	JobStageFailed
)

func (s JobStage) String() string {
	switch s {
	case JobStageQueued:
		return "queued"
	case JobStagePreparing:
		return "preparing"
	case JobStageProcessing:
		return "processing"
	case JobStageFinalizing:
		return "finalizing"
	case JobStageSucceeded:
		return "succeeded"
	case JobStageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s JobStage) IsTerminal() bool {
	return s == JobStageSucceeded || s == JobStageFailed
}

// Percent maps a stage to coarse progress for clients that render a bar.
// The processing stage dominates the wall clock, so it gets the wide band.
func (s JobStage) Percent() uint8 {
	switch s {
	case JobStageQueued:
		return 0
	case JobStagePreparing:
		return 10
	case JobStageProcessing:
		return 50
	case JobStageFinalizing:
		return 90
	case JobStageSucceeded:
		return 100
	case JobStageFailed:
		return 100
	default:
		return 0
	}
}

type JobEvent struct {
	JobID      string    `json:"job_id"`
	VideoID    string    `json:"video_id"`
	Stage      string    `json:"stage"`
	Progress   uint8     `json:"progress"`
	Message    string    `json:"message,omitempty"`
	Err        string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Dispatcher sends an accepted trim job to whichever execution backend is
// configured: the in-process worker pool or the Redis queue.
type Dispatcher interface {
	Dispatch(ctx context.Context, req TrimRequest) error
}
