package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"video-trimmer/internal/response"
	"video-trimmer/log"
	apperrors "video-trimmer/pkg/errors"
)

// isBodyTooLarge matches the error MaxBytesReader produces, both as a typed
// error and as the wrapped message multipart parsing can reduce it to.
func isBodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr) || strings.Contains(err.Error(), "request body too large")
}

// UploadVideo accepts one multipart video file under the "file" field and
// registers it for trimming.
func (h *Handler) UploadVideo(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			response.ErrorResponse(c, apperrors.New(apperrors.CodeRequestTooLarge, "Uploaded file is too large"))
			return
		}
		log.GetLogger().Error("UploadVideo FormFile err", zap.Error(err))
		response.ErrorResponse(c, apperrors.ErrNoFileProvided)
		return
	}
	if file.Filename == "" {
		response.ErrorResponse(c, apperrors.ErrNoFileSelected)
		return
	}

	data, err := h.Service.UploadVideo(file)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}

// DownloadVideo serves the trimmed output as an attachment.
func (h *Handler) DownloadVideo(c *gin.Context) {
	videoId := c.Param("videoId")
	if videoId == "" {
		response.ErrorResponse(c, apperrors.ErrInvalidParams)
		return
	}

	path, name, err := h.Service.ResolveDownload(videoId)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	c.FileAttachment(path, name)
}

// ServeVideo streams the original upload with the right content type, so
// the browser player can seek.
func (h *Handler) ServeVideo(c *gin.Context) {
	videoId := c.Param("videoId")
	if videoId == "" {
		response.ErrorResponse(c, apperrors.ErrInvalidParams)
		return
	}

	path, mimeType, err := h.Service.ResolveStream(videoId)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	c.Header("Content-Type", mimeType)
	c.File(path)
}

// GetDuration reports the video duration, probing the file on first ask.
func (h *Handler) GetDuration(c *gin.Context) {
	videoId := c.Param("videoId")
	if videoId == "" {
		response.ErrorResponse(c, apperrors.ErrInvalidParams)
		return
	}

	data, err := h.Service.GetVideoDuration(c.Request.Context(), videoId)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}

// DeleteVideo removes the upload, its trimmed output and preview. Deleting
// an unknown id still succeeds.
func (h *Handler) DeleteVideo(c *gin.Context) {
	videoId := c.Param("videoId")
	if videoId == "" {
		response.ErrorResponse(c, apperrors.ErrInvalidParams)
		return
	}

	data, err := h.Service.DeleteVideo(videoId)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}
