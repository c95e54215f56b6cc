package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"video-trimmer/internal/jobcore"
	"video-trimmer/log"
)

// TypeTrimTask is the asynq task type carrying one trim job.
const TypeTrimTask = "trim:process"

// TrimProcessor executes a dispatched trim request. Satisfied by the
// service layer.
type TrimProcessor interface {
	RunTrimJob(ctx context.Context, req jobcore.TrimRequest) error
}

// newTrimTask wraps a TrimRequest in an asynq task. The retry and timeout
// policy rides on the task itself so every enqueue gets the same limits.
func newTrimTask(req jobcore.TrimRequest) (*asynq.Task, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal trim task payload: %w", err)
	}
	return asynq.NewTask(TypeTrimTask, payload,
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Minute),
		asynq.Queue("default"),
	), nil
}

func decodeTrimTask(t *asynq.Task) (jobcore.TrimRequest, error) {
	var req jobcore.TrimRequest
	if err := json.Unmarshal(t.Payload(), &req); err != nil {
		return jobcore.TrimRequest{}, fmt.Errorf("unmarshal trim task payload: %w", err)
	}
	return req, nil
}

// handleTrimTask adapts the processor to the asynq handler signature.
func handleTrimTask(processor TrimProcessor) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		req, err := decodeTrimTask(t)
		if err != nil {
			return err
		}

		log.GetLogger().Info("Processing trim task from queue",
			zap.String("job_id", req.JobID),
			zap.String("video_id", req.VideoID))

		if err = processor.RunTrimJob(ctx, req); err != nil {
			log.GetLogger().Error("Trim task failed",
				zap.String("job_id", req.JobID),
				zap.Error(err))
			return err
		}
		return nil
	}
}
