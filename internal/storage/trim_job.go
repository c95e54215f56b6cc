package storage

import (
	"errors"

	"video-trimmer/internal/types"

	"gorm.io/gorm"
)

// SaveJob upserts by JobId.
func SaveJob(job *types.TrimJob) error {
	if DB == nil {
		return errors.New("database not initialized")
	}

	var existing types.TrimJob
	result := DB.Where("job_id = ?", job.JobId).First(&existing)

	if result.Error == nil {
		job.Id = existing.Id // preserve primary key
		return DB.Save(job).Error
	} else if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return DB.Create(job).Error
	}
	return result.Error
}

func GetJob(jobId string) (*types.TrimJob, error) {
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	var job types.TrimJob
	if err := DB.Where("job_id = ?", jobId).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func DeleteJobsForVideo(videoId string) error {
	if DB == nil {
		return errors.New("database not initialized")
	}
	return DB.Where("video_id = ?", videoId).Delete(&types.TrimJob{}).Error
}

// MarkStaleJobs marks all "running" jobs as "failed".
// This should be called on server startup to clean up zombie jobs.
func MarkStaleJobs() (int64, error) {
	if DB == nil {
		return 0, errors.New("database not initialized")
	}
	result := DB.Model(&types.TrimJob{}).
		Where("status = ?", types.TrimJobStatusRunning).
		Updates(map[string]interface{}{
			"status":      types.TrimJobStatusFailed,
			"stage":       types.TrimJobStageFailed,
			"fail_reason": "Task interrupted by server restart",
		})
	return result.RowsAffected, result.Error
}
