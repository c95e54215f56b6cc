package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"video-trimmer/config"
	"video-trimmer/internal/dto"
	"video-trimmer/internal/jobcore"
	"video-trimmer/internal/storage"
	"video-trimmer/internal/types"
	"video-trimmer/log"
	apperrors "video-trimmer/pkg/errors"
	"video-trimmer/pkg/ffmpeg"
	"video-trimmer/pkg/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const jobPollInterval = 200 * time.Millisecond

// StartTrim validates a cut request, dispatches it to the job backend and
// waits for the result within the configured request window. When the
// window expires with the job still running, the job reference is returned
// instead so the client can keep polling.
func (s *Service) StartTrim(ctx context.Context, req dto.TrimVideoReq) (*dto.TrimVideoResData, error) {
	video, err := s.getVideo(req.Id)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(video.Filepath); err != nil {
		return nil, apperrors.WrapWithDetail(apperrors.CodeSourceMissing,
			"Source file not found", video.Filepath, err)
	}

	start, end, err := s.resolveTimeRange(ctx, video, req.Start, req.End)
	if err != nil {
		return nil, err
	}

	outputName := buildOutputName(req.OutputName, video.Filename)
	outputPath, err := outputPathFor(video.VideoId, outputName)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeTrimFailed, "Failed to resolve output path", err)
	}

	jobID := uuid.NewString()
	job := &types.TrimJob{
		JobId:      jobID,
		VideoId:    video.VideoId,
		Status:     types.TrimJobStatusRunning,
		Stage:      types.TrimJobStageQueued,
		Progress:   jobcore.JobStageQueued.Percent(),
		StartSec:   start,
		EndSec:     end,
		OutputName: outputName,
		OutputPath: outputPath,
	}
	if err := storage.SaveJob(job); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDBError, "Database error", err)
	}

	trimReq := jobcore.TrimRequest{
		JobID:      jobID,
		VideoID:    video.VideoId,
		InputPath:  video.Filepath,
		OutputPath: outputPath,
		OutputName: outputName,
		Start:      start,
		End:        end,
	}
	if err := s.Dispatcher.Dispatch(ctx, trimReq); err != nil {
		job.Status = types.TrimJobStatusFailed
		job.Stage = types.TrimJobStageFailed
		job.FailCode = apperrors.CodeTrimFailed
		job.FailReason = err.Error()
		_ = storage.SaveJob(job)

		if errors.Is(err, jobcore.ErrQueueFull) {
			return nil, apperrors.ErrQueueFull
		}
		return nil, apperrors.Wrap(apperrors.CodeTrimFailed, "Failed to queue trim", err)
	}

	window := time.Duration(config.Conf.Server.RequestTimeout) * time.Second
	final, waitErr := s.WaitForJob(ctx, jobID, window)
	if waitErr != nil {
		// Window expired or client went away; hand back the job reference.
		current, getErr := storage.GetJob(jobID)
		if getErr != nil {
			return nil, apperrors.Wrap(apperrors.CodeDBError, "Database error", getErr)
		}
		return &dto.TrimVideoResData{
			Success:  false,
			Id:       video.VideoId,
			JobId:    jobID,
			Stage:    current.Stage,
			Progress: current.Progress,
		}, nil
	}

	if final.Status == types.TrimJobStatusFailed {
		code := final.FailCode
		if code == 0 {
			code = apperrors.CodeTrimFailed
		}
		return nil, apperrors.New(code, final.FailReason)
	}

	return &dto.TrimVideoResData{
		Success:    true,
		Id:         video.VideoId,
		OutputName: final.OutputName,
		JobId:      jobID,
	}, nil
}

// resolveTimeRange parses start/end with the same defaults the API always
// had: start "0s", end = full duration. An unknown duration is probed on
// the spot so "trim to the end" works even when no duration request ever
// ran.
func (s *Service) resolveTimeRange(ctx context.Context, video *types.Video, rawStart, rawEnd string) (float64, float64, error) {
	start := 0.0
	if strings.TrimSpace(rawStart) != "" {
		parsed, err := util.ParseTimestamp(rawStart)
		if err != nil {
			return 0, 0, apperrors.Wrap(apperrors.CodeInvalidTimestamp, "Invalid start time", err)
		}
		start = parsed
	}
	if start < 0 {
		return 0, 0, apperrors.New(apperrors.CodeInvalidTimestamp, "Start time must not be negative")
	}

	var end float64
	if strings.TrimSpace(rawEnd) != "" {
		parsed, err := util.ParseTimestamp(rawEnd)
		if err != nil {
			return 0, 0, apperrors.Wrap(apperrors.CodeInvalidTimestamp, "Invalid end time", err)
		}
		end = parsed
	} else {
		end = video.Duration
		if end == 0 {
			probed, err := s.probeAndCacheDuration(ctx, video)
			if err != nil {
				return 0, 0, apperrors.Wrap(apperrors.CodeProbeFailed, "Failed to read video duration", err)
			}
			end = probed
		}
	}

	if start >= end {
		return 0, 0, apperrors.ErrInvalidTimeRange
	}
	return start, end, nil
}

func (s *Service) probeAndCacheDuration(ctx context.Context, video *types.Video) (float64, error) {
	duration, err := s.Engine.ProbeDuration(ctx, video.Filepath)
	if err != nil {
		return 0, err
	}
	video.Duration = duration
	if err := storage.SaveVideo(video); err != nil {
		log.GetLogger().Warn("failed to cache probed duration",
			zap.String("video_id", video.VideoId), zap.Error(err))
	}
	return duration, nil
}

// WaitForJob polls the job row until it reaches a terminal state. Returns
// an error when the window expires or ctx is canceled first.
func (s *Service) WaitForJob(ctx context.Context, jobID string, window time.Duration) (*types.TrimJob, error) {
	deadline := time.NewTimer(window)
	defer deadline.Stop()
	ticker := time.NewTicker(jobPollInterval)
	defer ticker.Stop()

	for {
		job, err := storage.GetJob(jobID)
		if err == nil && job.Terminal() {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, context.DeadlineExceeded
		case <-ticker.C:
		}
	}
}

// RunTrimJob is the worker entry point shared by both execution backends.
// It moves the job through its stages, persisting and publishing each
// transition.
func (s *Service) RunTrimJob(ctx context.Context, req jobcore.TrimRequest) (err error) {
	defer func() {
		if r := recover(); r != nil {
			const size = 64 << 10
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			log.GetLogger().Error("trim job panic",
				zap.String("job_id", req.JobID),
				zap.Any("panic", r),
				zap.ByteString("stack", buf))
			err = s.failJob(req, apperrors.New(apperrors.CodeTrimFailed, "Trim worker crashed"))
		}
	}()

	s.setJobStage(req, jobcore.JobStagePreparing, "")

	if _, err := os.Stat(req.InputPath); err != nil {
		return s.failJob(req, apperrors.WrapWithDetail(apperrors.CodeSourceMissing,
			"Source file not found", req.InputPath, err))
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		if osErr := apperrors.FromOS(err, filepath.Dir(req.OutputPath)); osErr != nil {
			return s.failJob(req, osErr)
		}
		return s.failJob(req, apperrors.Wrap(apperrors.CodeFileWriteError,
			"Failed to create output directory", err))
	}

	s.setJobStage(req, jobcore.JobStageProcessing, "")

	err = s.Engine.Trim(ctx, ffmpeg.TrimSpec{
		Input:  req.InputPath,
		Output: req.OutputPath,
		Start:  req.Start,
		End:    req.End,
	})
	if err != nil {
		if osErr := apperrors.FromOS(err, filepath.Dir(req.OutputPath)); osErr != nil {
			return s.failJob(req, osErr)
		}
		return s.failJob(req, apperrors.WrapWithDetail(apperrors.CodeTrimFailed,
			"Trim failed", "source: "+req.InputPath, err))
	}

	s.setJobStage(req, jobcore.JobStageFinalizing, "")

	if video, err := storage.GetVideo(req.VideoID); err == nil {
		video.OutputPath = req.OutputPath
		video.OutputName = req.OutputName
		if err := storage.SaveVideo(video); err != nil {
			return s.failJob(req, apperrors.Wrap(apperrors.CodeDBError, "Database error", err))
		}
	}

	s.setJobStage(req, jobcore.JobStageSucceeded, "")

	log.GetLogger().Info("trim job completed",
		zap.String("job_id", req.JobID),
		zap.String("video_id", req.VideoID),
		zap.String("output", req.OutputPath))
	return nil
}

// GetTrimJob returns the current state of one job for polling clients.
func (s *Service) GetTrimJob(jobID string) (*dto.TrimJobResData, error) {
	job, err := storage.GetJob(jobID)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, apperrors.ErrJobNotFound
		}
		return nil, apperrors.Wrap(apperrors.CodeDBError, "Database error", err)
	}
	return &dto.TrimJobResData{
		JobId:      job.JobId,
		VideoId:    job.VideoId,
		Status:     job.Status,
		Stage:      job.Stage,
		Progress:   job.Progress,
		OutputName: job.OutputName,
		FailReason: job.FailReason,
	}, nil
}

func (s *Service) setJobStage(req jobcore.TrimRequest, stage jobcore.JobStage, message string) {
	job, err := storage.GetJob(req.JobID)
	if err != nil {
		log.GetLogger().Warn("job row missing during stage update",
			zap.String("job_id", req.JobID), zap.Error(err))
		return
	}

	job.Stage = stage.String()
	job.Progress = stage.Percent()
	if stage == jobcore.JobStageSucceeded {
		job.Status = types.TrimJobStatusSuccess
	}
	if err := storage.SaveJob(job); err != nil {
		log.GetLogger().Warn("failed to persist job stage",
			zap.String("job_id", req.JobID), zap.Error(err))
	}

	s.publishJobEvent(req, stage, message, "")
}

func (s *Service) failJob(req jobcore.TrimRequest, appErr *apperrors.AppError) error {
	job, err := storage.GetJob(req.JobID)
	if err == nil {
		job.Status = types.TrimJobStatusFailed
		job.Stage = types.TrimJobStageFailed
		job.Progress = jobcore.JobStageFailed.Percent()
		job.FailCode = appErr.Code
		job.FailReason = appErr.Message
		if saveErr := storage.SaveJob(job); saveErr != nil {
			log.GetLogger().Warn("failed to persist job failure",
				zap.String("job_id", req.JobID), zap.Error(saveErr))
		}
	}

	s.publishJobEvent(req, jobcore.JobStageFailed, appErr.Message, appErr.Message)

	log.GetLogger().Error("trim job failed",
		zap.String("job_id", req.JobID),
		zap.String("video_id", req.VideoID),
		zap.Error(appErr))
	return appErr
}

func (s *Service) publishJobEvent(req jobcore.TrimRequest, stage jobcore.JobStage, message, errMsg string) {
	if s.Hub == nil {
		return
	}
	s.Hub.Publish(jobcore.JobEvent{
		JobID:      req.JobID,
		VideoID:    req.VideoID,
		Stage:      stage.String(),
		Progress:   stage.Percent(),
		Message:    message,
		Err:        errMsg,
		OccurredAt: time.Now(),
	})
}

func buildOutputName(custom, sourceFilename string) string {
	custom = strings.TrimSpace(custom)
	if custom != "" {
		return util.SanitizeFilename(custom) + ".mp4"
	}
	return util.FileStem(sourceFilename) + "_trimmed.mp4"
}

func (s *Service) getVideo(videoID string) (*types.Video, error) {
	video, err := storage.GetVideo(videoID)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, apperrors.ErrVideoNotFound
		}
		return nil, apperrors.Wrap(apperrors.CodeDBError, "Database error", err)
	}
	return video, nil
}
