package storage

import (
	"errors"

	"video-trimmer/internal/types"

	"gorm.io/gorm"
)

// SaveVideo upserts by VideoId: the row is created on first save and
// updated in place afterwards.
func SaveVideo(video *types.Video) error {
	if DB == nil {
		return errors.New("database not initialized")
	}

	var existing types.Video
	result := DB.Where("video_id = ?", video.VideoId).First(&existing)

	if result.Error == nil {
		video.Id = existing.Id // preserve primary key
		return DB.Save(video).Error
	} else if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return DB.Create(video).Error
	}
	return result.Error
}

func GetVideo(videoId string) (*types.Video, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	var video types.Video
	if err := DB.Where("video_id = ?", videoId).First(&video).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

func DeleteVideo(videoId string) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	return DB.Where("video_id = ?", videoId).Delete(&types.Video{}).Error
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
