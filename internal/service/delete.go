package service

import (
	"os"

	"video-trimmer/internal/dto"
	"video-trimmer/internal/storage"
	"video-trimmer/log"
	apperrors "video-trimmer/pkg/errors"

	"go.uber.org/zap"
)

// DeleteVideo removes the upload, any trim output and the preview, then
// drops the registry rows. Deleting an unknown id succeeds; the end state
// is the same.
func (s *Service) DeleteVideo(videoID string) (*dto.DeleteVideoResData, error) {
	video, err := storage.GetVideo(videoID)
	if err != nil {
		if storage.IsNotFound(err) {
			return &dto.DeleteVideoResData{Success: true}, nil
		}
		return nil, apperrors.Wrap(apperrors.CodeDBError, "Database error", err)
	}

	removeIfExists(video.Filepath)
	removeIfExists(video.OutputPath)
	if previewPath, pathErr := previewPathFor(videoID); pathErr == nil {
		removeIfExists(previewPath)
	}

	if err := storage.DeleteJobsForVideo(videoID); err != nil {
		log.GetLogger().Warn("failed to delete jobs for video",
			zap.String("video_id", videoID), zap.Error(err))
	}
	if err := storage.DeleteVideo(videoID); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDBError, "Database error", err)
	}

	log.GetLogger().Info("video deleted", zap.String("video_id", videoID))
	return &dto.DeleteVideoResData{Success: true}, nil
}

func removeIfExists(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.GetLogger().Warn("failed to remove file", zap.String("path", path), zap.Error(err))
	}
}
