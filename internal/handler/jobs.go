package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"video-trimmer/internal/jobcore"
	"video-trimmer/internal/response"
	"video-trimmer/internal/types"
	"video-trimmer/log"
	apperrors "video-trimmer/pkg/errors"
)

var jobSocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The UI is served from the same process; cross-origin use is fine for
	// a local tool.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WatchTrimJob streams job progress events over a websocket. The first
// frame is a snapshot of the current job state; the connection closes once
// the job reaches a terminal stage.
func (h *Handler) WatchTrimJob(c *gin.Context) {
	jobId := c.Param("jobId")
	if jobId == "" {
		response.ErrorResponse(c, apperrors.ErrInvalidParams)
		return
	}

	job, err := h.Service.GetTrimJob(jobId)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}

	// Subscribe before the snapshot so no event published in between is
	// lost.
	events, cancel := h.Service.Hub.Subscribe(jobId)
	defer cancel()

	conn, err := jobSocketUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.GetLogger().Error("WatchTrimJob upgrade err", zap.String("jobId", jobId), zap.Error(err))
		return
	}
	defer conn.Close()

	snapshot := jobcore.JobEvent{
		JobID:      job.JobId,
		VideoID:    job.VideoId,
		Stage:      job.Stage,
		Progress:   job.Progress,
		Err:        job.FailReason,
		OccurredAt: time.Now(),
	}
	if err := conn.WriteJSON(snapshot); err != nil {
		return
	}
	if isTerminalStage(job.Stage) {
		return
	}

	// Drain reads so client close frames are noticed.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
			if isTerminalStage(event.Stage) {
				return
			}
		case <-clientGone:
			return
		}
	}
}

func isTerminalStage(stage string) bool {
	return stage == types.TrimJobStageSucceeded || stage == types.TrimJobStageFailed
}
