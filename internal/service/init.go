package service

import (
	"video-trimmer/internal/jobcore"
	"video-trimmer/internal/storage"
	"video-trimmer/pkg/ffmpeg"

	"golang.org/x/sync/singleflight"
)

type Service struct {
	Engine     *ffmpeg.Engine
	Hub        *jobcore.Hub
	Dispatcher jobcore.Dispatcher

	// previewGroup collapses concurrent preview requests for the same
	// video into one transcode.
	previewGroup singleflight.Group
}

func NewService() *Service {
	return &Service{
		Engine: ffmpeg.New(storage.FfmpegPath, storage.FfprobePath),
		Hub:    jobcore.NewHub(),
	}
}

// SetDispatcher wires the execution backend. Called once during startup,
// after the backend (which itself needs the service) has been built.
func (s *Service) SetDispatcher(dispatcher jobcore.Dispatcher) {
	s.Dispatcher = dispatcher
}

// ReloadEngine rebuilds the ffmpeg engine from the current tool paths.
// Called after a config update may have changed where the binaries live.
func (s *Service) ReloadEngine() {
	s.Engine = ffmpeg.New(storage.FfmpegPath, storage.FfprobePath)
}
