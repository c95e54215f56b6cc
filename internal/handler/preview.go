package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"video-trimmer/internal/response"
	apperrors "video-trimmer/pkg/errors"
)

// Preview dispatches both preview routes. Gin's route tree cannot hold
// /preview/:videoId next to /preview/status/:videoId, so a single wildcard
// route covers them: /preview/{videoId} serves the transcode and
// /preview/status/{videoId} reports whether one exists.
func (h *Handler) Preview(c *gin.Context) {
	rest := strings.Trim(c.Param("previewPath"), "/")
	if strings.HasPrefix(rest, "status/") {
		h.previewStatus(c, strings.TrimPrefix(rest, "status/"))
		return
	}
	h.getPreview(c, rest)
}

// getPreview serves the browser-safe H.264 preview, transcoding it first
// when it does not exist yet.
func (h *Handler) getPreview(c *gin.Context, videoId string) {
	if videoId == "" {
		response.ErrorResponse(c, apperrors.ErrInvalidParams)
		return
	}

	path, err := h.Service.EnsurePreview(c.Request.Context(), videoId)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	c.Header("Content-Type", "video/mp4")
	c.File(path)
}

// previewStatus reports whether a preview has already been generated.
func (h *Handler) previewStatus(c *gin.Context, videoId string) {
	if videoId == "" {
		response.ErrorResponse(c, apperrors.ErrInvalidParams)
		return
	}

	data, err := h.Service.PreviewStatus(videoId)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}
