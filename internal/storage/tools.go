package storage

// Resolved media tool paths, set by deps.CheckDependency during startup.
// The bare command names make dev environments and tests fall back to PATH.
var (
	FfmpegPath  = "ffmpeg"
	FfprobePath = "ffprobe"
)
