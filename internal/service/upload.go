package service

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"video-trimmer/internal/dto"
	"video-trimmer/internal/storage"
	"video-trimmer/internal/types"
	"video-trimmer/log"
	apperrors "video-trimmer/pkg/errors"
	"video-trimmer/pkg/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UploadVideo stores the file under uploads/{videoID}_{filename} and
// registers it. Duration is left at 0; probing large files on upload is too
// slow, so it happens on the first duration request instead.
func (s *Service) UploadVideo(file *multipart.FileHeader) (*dto.UploadVideoResData, error) {
	if !types.IsAllowedVideoFilename(file.Filename) {
		return nil, apperrors.ErrInvalidFileType
	}

	videoID := uuid.NewString()
	filename := util.SanitizeFilename(file.Filename)

	dst, err := uploadPathFor(videoID, filename)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUploadFailed, "Failed to resolve upload path", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		if osErr := apperrors.FromOS(err, filepath.Dir(dst)); osErr != nil {
			return nil, osErr
		}
		return nil, apperrors.Wrap(apperrors.CodeUploadFailed, "Failed to create upload directory", err)
	}

	if err := saveUploadedFile(file, dst); err != nil {
		if osErr := apperrors.FromOS(err, filepath.Dir(dst)); osErr != nil {
			return nil, osErr
		}
		return nil, apperrors.Wrap(apperrors.CodeUploadFailed, "Failed to save uploaded file", err)
	}

	video := &types.Video{
		VideoId:  videoID,
		Filename: filename,
		Filepath: dst,
		Size:     file.Size,
	}
	if err := storage.SaveVideo(video); err != nil {
		_ = os.Remove(dst)
		return nil, apperrors.Wrap(apperrors.CodeDBError, "Database error", err)
	}

	log.GetLogger().Info("video uploaded",
		zap.String("video_id", videoID),
		zap.String("filename", filename),
		zap.Int64("size", file.Size))

	return &dto.UploadVideoResData{
		Id:          videoID,
		Filename:    filename,
		Size:        file.Size,
		Duration:    0,
		DurationStr: util.FormatSeconds(0),
	}, nil
}

func saveUploadedFile(file *multipart.FileHeader, dst string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return err
	}
	// Close errors matter here: a full disk often only surfaces on close.
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}
