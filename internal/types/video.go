package types

// Video is one uploaded source file and everything derived from it.
// Duration stays 0 until the first probe; reading it on upload is too slow
// for large files.
type Video struct {
	Id          int64   `json:"id" gorm:"primaryKey;autoIncrement"`
	VideoId     string  `json:"video_id" gorm:"uniqueIndex;size:64"`
	Filename    string  `json:"filename"`
	Filepath    string  `json:"filepath"`
	Size        int64   `json:"size"`
	Duration    float64 `json:"duration"`
	OutputPath  string  `json:"output_path"`
	OutputName  string  `json:"output_name"`
	PreviewPath string  `json:"preview_path"`
	CreateTime  int64   `json:"create_time" gorm:"autoCreateTime"`
	UpdateTime  int64   `json:"update_time" gorm:"autoUpdateTime"`
}

// Trimmed reports whether a finished trim output exists for this video.
func (v *Video) Trimmed() bool {
	return v.OutputPath != ""
}
