package dto

// TrimVideoReq asks for a cut of an uploaded video. Start and End are
// "SS.mmm" timestamps, optionally suffixed with "s". Start defaults to
// "0s", End to the full duration.
type TrimVideoReq struct {
	Id         string `json:"id" binding:"required"`
	Start      string `json:"start"`
	End        string `json:"end"`
	OutputName string `json:"output_name"`
}

type TrimVideoResData struct {
	Success    bool   `json:"success"`
	Id         string `json:"id"`
	OutputName string `json:"output_name,omitempty"`
	JobId      string `json:"job_id"`
	Stage      string `json:"stage,omitempty"`
	Progress   uint8  `json:"progress,omitempty"`
}

type UploadVideoResData struct {
	Id          string  `json:"id"`
	Filename    string  `json:"filename"`
	Size        int64   `json:"size"`
	Duration    float64 `json:"duration"`
	DurationStr string  `json:"duration_str"`
}

type VideoDurationResData struct {
	Duration    float64 `json:"duration"`
	DurationStr string  `json:"duration_str"`
}

type PreviewStatusResData struct {
	Exists  bool   `json:"exists"`
	VideoId string `json:"video_id"`
}

type DeleteVideoResData struct {
	Success bool `json:"success"`
}

// TrimJobResData mirrors one job row for polling clients.
type TrimJobResData struct {
	JobId      string `json:"job_id"`
	VideoId    string `json:"video_id"`
	Status     uint8  `json:"status"`
	Stage      string `json:"stage"`
	Progress   uint8  `json:"progress"`
	OutputName string `json:"output_name,omitempty"`
	FailReason string `json:"fail_reason,omitempty"`
}
