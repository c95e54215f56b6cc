package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"video-trimmer/internal/deps"
	"video-trimmer/internal/dto"
	"video-trimmer/internal/response"
	"video-trimmer/log"
	apperrors "video-trimmer/pkg/errors"
)

// StartTrim accepts a cut request and runs it through the job backend. The
// response carries the finished output when the job completes within the
// request window, or a job reference the client can poll.
func (h *Handler) StartTrim(c *gin.Context) {
	var req dto.TrimVideoReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.GetLogger().Error("StartTrim ShouldBindJSON err", zap.Error(err))
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "Invalid parameters", err))
		return
	}
	log.GetLogger().Info("StartTrim received request", zap.Any("req", req))

	if configUpdated {
		log.GetLogger().Info("Config updated, re-resolving dependencies")
		if err := deps.CheckDependency(); err != nil {
			log.GetLogger().Warn("dependency re-check failed", zap.Error(err))
		}
		h.Service.ReloadEngine()
		configUpdated = false
	}

	data, err := h.Service.StartTrim(c.Request.Context(), req)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}

// GetTrimJob reports the current state of one trim job.
func (h *Handler) GetTrimJob(c *gin.Context) {
	jobId := c.Param("jobId")
	if jobId == "" {
		response.ErrorResponse(c, apperrors.ErrInvalidParams)
		return
	}

	data, err := h.Service.GetTrimJob(jobId)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}
