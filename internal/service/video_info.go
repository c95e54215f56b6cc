package service

import (
	"context"
	"os"

	"video-trimmer/internal/dto"
	"video-trimmer/internal/storage"
	"video-trimmer/internal/types"
	"video-trimmer/log"
	apperrors "video-trimmer/pkg/errors"
	"video-trimmer/pkg/util"

	"go.uber.org/zap"
)

// GetVideoDuration returns the cached duration, probing the file on the
// first request. A failed probe reads as 0 rather than an error, so broken
// files still answer.
func (s *Service) GetVideoDuration(ctx context.Context, videoID string) (*dto.VideoDurationResData, error) {
	video, err := s.getVideo(videoID)
	if err != nil {
		return nil, err
	}

	if video.Duration == 0 {
		duration, probeErr := s.Engine.ProbeDuration(ctx, video.Filepath)
		if probeErr != nil {
			log.GetLogger().Warn("duration probe failed",
				zap.String("video_id", videoID), zap.Error(probeErr))
			duration = 0
		}
		if duration > 0 {
			video.Duration = duration
			if err := storage.SaveVideo(video); err != nil {
				log.GetLogger().Warn("failed to cache duration",
					zap.String("video_id", videoID), zap.Error(err))
			}
		}
	}

	return &dto.VideoDurationResData{
		Duration:    video.Duration,
		DurationStr: util.FormatSeconds(video.Duration),
	}, nil
}

// ResolveDownload locates the finished trim output for attachment download.
func (s *Service) ResolveDownload(videoID string) (string, string, error) {
	video, err := s.getVideo(videoID)
	if err != nil {
		return "", "", err
	}
	if !video.Trimmed() {
		return "", "", apperrors.ErrNotTrimmed
	}
	if _, err := os.Stat(video.OutputPath); err != nil {
		return "", "", apperrors.WrapWithDetail(apperrors.CodeFileNotFound,
			"File not found", video.OutputPath, err)
	}
	return video.OutputPath, video.OutputName, nil
}

// ResolveStream locates the original upload for inline playback.
func (s *Service) ResolveStream(videoID string) (string, string, error) {
	video, err := s.getVideo(videoID)
	if err != nil {
		return "", "", err
	}
	if _, err := os.Stat(video.Filepath); err != nil {
		return "", "", apperrors.WrapWithDetail(apperrors.CodeFileNotFound,
			"File not found", video.Filepath, err)
	}
	return video.Filepath, types.MimeTypeFor(video.Filepath), nil
}
