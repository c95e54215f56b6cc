package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"video-trimmer/config"
	"video-trimmer/internal/response"
	"video-trimmer/log"
	apperrors "video-trimmer/pkg/errors"
)

// configUpdated flags that the next trim request should re-resolve
// dependencies before dispatching work.
var configUpdated bool

// ConfigPayload is the editable slice of the configuration. Secrets
// (secret key, Redis password) never leave the server.
type ConfigPayload struct {
	Server struct {
		Host           string `json:"host"`
		Port           int    `json:"port"`
		RequestTimeout int    `json:"request_timeout"`
	} `json:"server"`
	App struct {
		MaxUploadMB int64 `json:"max_upload_mb"`
	} `json:"app"`
	Jobs struct {
		Concurrency int `json:"concurrency"`
		QueueSize   int `json:"queue_size"`
	} `json:"jobs"`
	Queue struct {
		RedisAddr string `json:"redis_addr"`
		RedisDB   int    `json:"redis_db"`
	} `json:"queue"`
	Preview struct {
		MaxHeight int    `json:"max_height"`
		Bitrate   string `json:"bitrate"`
	} `json:"preview"`
}

func currentConfigPayload() ConfigPayload {
	var payload ConfigPayload
	payload.Server.Host = config.Conf.Server.Host
	payload.Server.Port = config.Conf.Server.Port
	payload.Server.RequestTimeout = config.Conf.Server.RequestTimeout
	payload.App.MaxUploadMB = config.Conf.App.MaxUploadMB
	payload.Jobs.Concurrency = config.Conf.Jobs.Concurrency
	payload.Jobs.QueueSize = config.Conf.Jobs.QueueSize
	payload.Queue.RedisAddr = config.Conf.Queue.RedisAddr
	payload.Queue.RedisDB = config.Conf.Queue.RedisDB
	payload.Preview.MaxHeight = config.Conf.Preview.MaxHeight
	payload.Preview.Bitrate = config.Conf.Preview.Bitrate
	return payload
}

// GetConfig returns the current configuration without secrets.
func (h *Handler) GetConfig(c *gin.Context) {
	response.Success(c, currentConfigPayload())
}

// UpdateConfig merges the posted fields over the current configuration and
// persists the result. Fields absent from the request keep their values.
func (h *Handler) UpdateConfig(c *gin.Context) {
	payload := currentConfigPayload()
	if err := c.ShouldBindJSON(&payload); err != nil {
		log.GetLogger().Error("UpdateConfig ShouldBindJSON err", zap.Error(err))
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "Invalid parameters", err))
		return
	}

	config.Conf.Server.Host = payload.Server.Host
	config.Conf.Server.Port = payload.Server.Port
	config.Conf.Server.RequestTimeout = payload.Server.RequestTimeout
	config.Conf.App.MaxUploadMB = payload.App.MaxUploadMB
	config.Conf.Jobs.Concurrency = payload.Jobs.Concurrency
	config.Conf.Jobs.QueueSize = payload.Jobs.QueueSize
	config.Conf.Queue.RedisAddr = payload.Queue.RedisAddr
	config.Conf.Queue.RedisDB = payload.Queue.RedisDB
	config.Conf.Preview.MaxHeight = payload.Preview.MaxHeight
	config.Conf.Preview.Bitrate = payload.Preview.Bitrate

	if err := config.CheckConfig(); err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "Invalid configuration", err))
		return
	}
	if err := config.SaveConfig(); err != nil {
		log.GetLogger().Error("UpdateConfig save err", zap.Error(err))
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeFileWriteError, "Failed to save configuration", err))
		return
	}

	configUpdated = true
	log.GetLogger().Info("Configuration updated")
	response.Success(c, currentConfigPayload())
}
