package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"video-trimmer/internal/appdirs"
)

var appDirsResolver = appdirs.Resolve

func resolveUploadDir() (string, error) {
	dirs, err := appDirsResolver()
	if err != nil {
		return "", err
	}
	return appdirs.UploadDirFor(dirs), nil
}

func resolveOutputDir() (string, error) {
	dirs, err := appDirsResolver()
	if err != nil {
		return "", err
	}
	return appdirs.OutputDirFor(dirs), nil
}

func resolvePreviewDir() (string, error) {
	dirs, err := appDirsResolver()
	if err != nil {
		return "", err
	}
	return appdirs.PreviewDirFor(dirs), nil
}

// EnsureRuntimeDirs creates the uploads, output and previews directories.
// Called once at startup so request handlers can assume they exist.
func EnsureRuntimeDirs() error {
	for _, resolve := range []func() (string, error){resolveUploadDir, resolveOutputDir, resolvePreviewDir} {
		dir, err := resolve()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create runtime dir %s: %w", dir, err)
		}
	}
	return nil
}

// uploadPathFor places uploads as {videoID}_{filename} so distinct uploads
// of the same file never collide.
func uploadPathFor(videoID, filename string) (string, error) {
	if strings.TrimSpace(videoID) == "" {
		return "", fmt.Errorf("video id is empty")
	}
	dir, err := resolveUploadDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s", videoID, filename)), nil
}

func outputPathFor(videoID, outputName string) (string, error) {
	if strings.TrimSpace(videoID) == "" {
		return "", fmt.Errorf("video id is empty")
	}
	dir, err := resolveOutputDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s", videoID, outputName)), nil
}

func previewPathFor(videoID string) (string, error) {
	if strings.TrimSpace(videoID) == "" {
		return "", fmt.Errorf("video id is empty")
	}
	dir, err := resolvePreviewDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("%s_preview.mp4", videoID)), nil
}
