package service

import (
	"context"
	"os"
	"path/filepath"

	"video-trimmer/config"
	"video-trimmer/internal/dto"
	"video-trimmer/internal/storage"
	"video-trimmer/log"
	apperrors "video-trimmer/pkg/errors"
	"video-trimmer/pkg/ffmpeg"

	"go.uber.org/zap"
)

// EnsurePreview returns the path of the browser-friendly H.264 preview,
// generating it on first request. Concurrent requests for the same video
// share one transcode; the preview file only appears once it is complete.
func (s *Service) EnsurePreview(ctx context.Context, videoID string) (string, error) {
	video, err := s.getVideo(videoID)
	if err != nil {
		return "", err
	}

	previewPath, err := previewPathFor(videoID)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodePreviewFailed, "Failed to resolve preview path", err)
	}
	if _, statErr := os.Stat(previewPath); statErr == nil {
		return previewPath, nil
	}

	_, err, _ = s.previewGroup.Do(videoID, func() (any, error) {
		// A waiter may have finished the work while we queued.
		if _, statErr := os.Stat(previewPath); statErr == nil {
			return nil, nil
		}

		if err := os.MkdirAll(filepath.Dir(previewPath), 0o755); err != nil {
			if osErr := apperrors.FromOS(err, filepath.Dir(previewPath)); osErr != nil {
				return nil, osErr
			}
			return nil, apperrors.Wrap(apperrors.CodePreviewFailed, "Failed to create preview directory", err)
		}

		// Write to a temp name so status checks never see a partial file.
		tmpPath := previewPath + ".part"
		spec := ffmpeg.PreviewSpec{
			Input:     video.Filepath,
			Output:    tmpPath,
			MaxHeight: config.Conf.Preview.MaxHeight,
			Bitrate:   config.Conf.Preview.Bitrate,
		}
		if err := s.Engine.TranscodePreview(ctx, spec); err != nil {
			_ = os.Remove(tmpPath)
			if osErr := apperrors.FromOS(err, filepath.Dir(previewPath)); osErr != nil {
				return nil, osErr
			}
			return nil, apperrors.Wrap(apperrors.CodePreviewFailed, "Failed to generate preview", err)
		}
		if err := os.Rename(tmpPath, previewPath); err != nil {
			_ = os.Remove(tmpPath)
			return nil, apperrors.Wrap(apperrors.CodePreviewFailed, "Failed to finalize preview", err)
		}

		video.PreviewPath = previewPath
		if err := storage.SaveVideo(video); err != nil {
			log.GetLogger().Warn("failed to record preview path",
				zap.String("video_id", videoID), zap.Error(err))
		}

		log.GetLogger().Info("preview generated",
			zap.String("video_id", videoID),
			zap.String("path", previewPath))
		return nil, nil
	})
	if err != nil {
		return "", err
	}
	return previewPath, nil
}

// PreviewStatus reports whether a finished preview exists on disk.
func (s *Service) PreviewStatus(videoID string) (*dto.PreviewStatusResData, error) {
	if _, err := s.getVideo(videoID); err != nil {
		return nil, err
	}

	previewPath, err := previewPathFor(videoID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodePreviewFailed, "Failed to resolve preview path", err)
	}
	_, statErr := os.Stat(previewPath)
	return &dto.PreviewStatusResData{
		Exists:  statErr == nil,
		VideoId: videoID,
	}, nil
}
