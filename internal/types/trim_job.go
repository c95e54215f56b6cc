package types

// Trim job lifecycle statuses.
const (
	TrimJobStatusRunning uint8 = 1
	TrimJobStatusSuccess uint8 = 2
	TrimJobStatusFailed  uint8 = 3
)

// Trim job stages, reported alongside the coarse status.
const (
	TrimJobStageQueued     = "queued"
	TrimJobStagePreparing  = "preparing"
	TrimJobStageProcessing = "processing"
	TrimJobStageFinalizing = "finalizing"
	TrimJobStageSucceeded  = "succeeded"
	TrimJobStageFailed     = "failed"
)

// TrimJob records one cut request against an uploaded video. A row is
// created when the request is accepted and updated as the worker reports
// progress, so state survives restarts.
type TrimJob struct {
	Id         int64   `json:"id" gorm:"primaryKey;autoIncrement"`
	JobId      string  `json:"job_id" gorm:"uniqueIndex;size:64"`
	VideoId    string  `json:"video_id" gorm:"index;size:64"`
	Status     uint8   `json:"status"`
	Stage      string  `json:"stage"`
	Progress   uint8   `json:"progress"`
	StartSec   float64 `json:"start_sec"`
	EndSec     float64 `json:"end_sec"`
	OutputName string  `json:"output_name"`
	OutputPath string  `json:"output_path"`
	FailCode   int     `json:"fail_code"`
	FailReason string  `json:"fail_reason"`
	CreateTime int64   `json:"create_time" gorm:"autoCreateTime"`
	UpdateTime int64   `json:"update_time" gorm:"autoUpdateTime"`
}

// Terminal reports whether the job reached a final state.
func (j *TrimJob) Terminal() bool {
	return j.Status == TrimJobStatusSuccess || j.Status == TrimJobStatusFailed
}
