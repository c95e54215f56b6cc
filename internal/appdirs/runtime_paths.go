package appdirs

import "path/filepath"

const (
	uploadsDirName  = "uploads"
	outputDirName   = "output"
	previewsDirName = "previews"
	binDirName      = "bin"
	dbFileName      = "trimmer.db"
)

// UploadDirFor is where raw uploads land, named {videoID}_{filename}.
func UploadDirFor(paths Paths) string {
	return filepath.Join(paths.DataDir, uploadsDirName)
}

// OutputDirFor holds finished trim results.
func OutputDirFor(paths Paths) string {
	return filepath.Join(paths.DataDir, outputDirName)
}

// PreviewDirFor holds browser-friendly preview transcodes.
func PreviewDirFor(paths Paths) string {
	return filepath.Join(paths.DataDir, previewsDirName)
}

// BinDirFor is where self-installed tools (ffmpeg, ffprobe) are unpacked.
func BinDirFor(paths Paths) string {
	return filepath.Join(paths.DataDir, binDirName)
}

func DBPathFor(paths Paths) string {
	return filepath.Join(paths.DataDir, dbFileName)
}
