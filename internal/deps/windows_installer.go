package deps

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Install stage names surfaced through InstallProgress.Stage.
const (
	installStagePreparing   = "preparing"
	installStageDownloading = "downloading"
	installStageVerifying   = "verifying"
	installStageExtracting  = "extracting"
	installStageDone        = "done"
)

// ffmpegBundle pins the archive the installer downloads on Windows. The
// BtbN build ships ffmpeg.exe and ffprobe.exe in one zip, so a single
// download satisfies the whole inventory.
var ffmpegBundle = bundleSpec{
	Version: "n7.1.3-40-gcddd06f3b9",
	URL:     "https://github.com/BtbN/FFmpeg-Builds/releases/download/autobuild-2026-02-18-13-03/ffmpeg-n7.1.3-40-gcddd06f3b9-win64-gpl-7.1.zip",
	SHA256:  "8624d6006289c5ca2c1f2f65c19f5812a44261ce9d0fa4c1dc9a45063b3c0735",
	Executables: map[string]string{
		DependencyIDFFmpeg:  "ffmpeg.exe",
		DependencyIDFFprobe: "ffprobe.exe",
	},
}

// bundleSpec describes one downloadable archive and the executables it
// provides, keyed by dependency id.
type bundleSpec struct {
	Version     string
	URL         string
	SHA256      string
	Executables map[string]string
}

type InstallProgress struct {
	DependencyID string
	Stage        string
	Message      string
	Downloaded   int64
	Total        int64
	Percent      float64
}

type InstallProgressCallback func(progress InstallProgress)

// CanAutoInstallDependency reports whether InstallDependency can provision
// the given binary on this platform.
func CanAutoInstallDependency(dependencyID string) bool {
	if runtime.GOOS != "windows" {
		return false
	}
	_, ok := ffmpegBundle.Executables[normalizeDependencyID(dependencyID)]
	return ok
}

// InstallDependency downloads the pinned FFmpeg build and registers the
// extracted binaries in storage. Windows only; other platforms are expected
// to install FFmpeg through their package manager.
func InstallDependency(dependencyID string, progressCallback InstallProgressCallback) error {
	if runtime.GOOS != "windows" {
		return fmt.Errorf("automatic dependency install currently supports Windows only")
	}
	normalizedID := normalizeDependencyID(dependencyID)
	if !CanAutoInstallDependency(normalizedID) {
		return fmt.Errorf("dependency %q does not support automatic install", dependencyID)
	}

	root, err := managedInstallRoot()
	if err != nil {
		return err
	}
	installer := &bundleInstaller{
		root:     root,
		client:   resty.New().SetTimeout(30 * time.Minute),
		bundle:   ffmpegBundle,
		progress: progressCallback,
	}
	if err = installer.install(context.Background(), normalizedID); err != nil {
		return err
	}
	EnsureManagedDependencyPaths()
	return nil
}

// bundleInstaller downloads, verifies and unpacks one archive into the
// managed install root.
type bundleInstaller struct {
	root     string
	client   *resty.Client
	bundle   bundleSpec
	progress InstallProgressCallback
}

func (b *bundleInstaller) install(ctx context.Context, dependencyID string) error {
	targets, err := b.targetPaths()
	if err != nil {
		return err
	}

	if allFilesExist(targets) {
		registerInstalledPaths(targets)
		b.emit(InstallProgress{
			DependencyID: dependencyID,
			Stage:        installStageDone,
			Message:      "Dependency already installed",
			Percent:      1,
		})
		return nil
	}

	if err = os.MkdirAll(b.root, 0o755); err != nil {
		return fmt.Errorf("create install root: %w", err)
	}
	b.emit(InstallProgress{
		DependencyID: dependencyID,
		Stage:        installStagePreparing,
		Message:      fmt.Sprintf("Preparing %s installer", dependencyID),
	})

	archivePath, err := b.download(ctx, dependencyID)
	if err != nil {
		return err
	}
	defer os.Remove(archivePath)

	if err = b.extract(archivePath, targets, dependencyID); err != nil {
		return err
	}
	registerInstalledPaths(targets)

	b.emit(InstallProgress{
		DependencyID: dependencyID,
		Stage:        installStageDone,
		Message:      fmt.Sprintf("%s installed successfully", dependencyID),
		Percent:      1,
	})
	return nil
}

func (b *bundleInstaller) targetPaths() (map[string]string, error) {
	if len(b.bundle.Executables) == 0 {
		return nil, fmt.Errorf("bundle %s provides no executables", b.bundle.Version)
	}

	targets := make(map[string]string, len(b.bundle.Executables))
	for dependencyID, executable := range b.bundle.Executables {
		if dependencyID == "" || executable == "" {
			return nil, fmt.Errorf("bundle %s has an incomplete executable entry", b.bundle.Version)
		}
		targets[dependencyID] = filepath.Join(b.root, dependencyID, executable)
	}
	return targets, nil
}

// download streams the archive into a temp file, hashing as it goes, and
// fails on a checksum mismatch.
func (b *bundleInstaller) download(ctx context.Context, dependencyID string) (string, error) {
	downloadDir := filepath.Join(b.root, "downloads")
	if err := os.MkdirAll(downloadDir, 0o755); err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}
	out, err := os.CreateTemp(downloadDir, "ffmpeg-bundle-*.zip")
	if err != nil {
		return "", fmt.Errorf("create download file: %w", err)
	}
	archivePath := out.Name()
	discard := func() {
		out.Close()
		os.Remove(archivePath)
	}

	resp, err := b.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(b.bundle.URL)
	if err != nil {
		discard()
		return "", fmt.Errorf("download %s: %w", b.bundle.URL, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		discard()
		return "", fmt.Errorf("download %s: unexpected status %s", b.bundle.URL, resp.Status())
	}

	total := resp.RawResponse.ContentLength
	hasher := sha256.New()
	reader := &progressReader{
		source: body,
		total:  total,
		report: func(downloaded int64) {
			percent := 0.75
			if total > 0 {
				percent = 0.75 * float64(downloaded) / float64(total)
			}
			b.emit(InstallProgress{
				DependencyID: dependencyID,
				Stage:        installStageDownloading,
				Message:      "Downloading FFmpeg build " + b.bundle.Version,
				Downloaded:   downloaded,
				Total:        total,
				Percent:      percent,
			})
		},
	}

	if _, err = io.Copy(io.MultiWriter(out, hasher), reader); err != nil {
		discard()
		return "", fmt.Errorf("write download file: %w", err)
	}
	if err = out.Close(); err != nil {
		os.Remove(archivePath)
		return "", fmt.Errorf("close download file: %w", err)
	}

	if err = b.verifyChecksum(hasher, dependencyID, reader.downloaded, total); err != nil {
		os.Remove(archivePath)
		return "", err
	}
	return archivePath, nil
}

func (b *bundleInstaller) verifyChecksum(hasher hash.Hash, dependencyID string, downloaded, total int64) error {
	b.emit(InstallProgress{
		DependencyID: dependencyID,
		Stage:        installStageVerifying,
		Message:      "Verifying archive checksum",
		Downloaded:   downloaded,
		Total:        total,
		Percent:      0.85,
	})

	expected := strings.ToLower(strings.TrimSpace(b.bundle.SHA256))
	if expected == "" {
		return nil
	}
	actual := hex.EncodeToString(hasher.Sum(nil))
	if actual != expected {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", b.bundle.URL, expected, actual)
	}
	return nil
}

// extract copies the bundle executables out of the archive. Build zips nest
// binaries under a versioned directory, so entries are matched by basename.
func (b *bundleInstaller) extract(archivePath string, targets map[string]string, dependencyID string) error {
	archive, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip archive: %w", err)
	}
	defer archive.Close()

	if len(archive.File) == 0 {
		return fmt.Errorf("zip archive is empty")
	}

	wanted := make(map[string]string, len(targets))
	for id, target := range targets {
		wanted[strings.ToLower(filepath.Base(target))] = id
	}

	extracted := make(map[string]bool, len(targets))
	for i, entry := range archive.File {
		b.emit(InstallProgress{
			DependencyID: dependencyID,
			Stage:        installStageExtracting,
			Message:      "Extracting archive",
			Percent:      0.85 + 0.1*float64(i+1)/float64(len(archive.File)),
		})

		if entry.FileInfo().IsDir() {
			continue
		}
		// Zip entry names always use forward slashes.
		id, ok := wanted[strings.ToLower(path.Base(entry.Name))]
		if !ok {
			continue
		}
		if err = writeZipEntry(entry, targets[id]); err != nil {
			return err
		}
		extracted[id] = true
	}

	var missing []string
	for id := range targets {
		if !extracted[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("archive missing executables for: %s", strings.Join(missing, ", "))
	}
	return nil
}

func writeZipEntry(entry *zip.File, targetPath string) error {
	source, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open zip entry %q: %w", entry.Name, err)
	}
	defer source.Close()

	if err = os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}
	target, err := os.Create(targetPath)
	if err != nil {
		return fmt.Errorf("create target file %q: %w", targetPath, err)
	}
	defer target.Close()

	if _, err = io.Copy(target, source); err != nil {
		return fmt.Errorf("copy zip entry to %q: %w", targetPath, err)
	}
	if err = os.Chmod(targetPath, 0o755); err != nil {
		return fmt.Errorf("chmod %q: %w", targetPath, err)
	}
	return nil
}

func allFilesExist(paths map[string]string) bool {
	if len(paths) == 0 {
		return false
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

func registerInstalledPaths(targets map[string]string) {
	for dependencyID, target := range targets {
		setStoragePathForDependency(dependencyID, target)
	}
}

func (b *bundleInstaller) emit(progress InstallProgress) {
	if b.progress == nil {
		return
	}
	if progress.Percent < 0 {
		progress.Percent = 0
	}
	if progress.Percent > 1 {
		progress.Percent = 1
	}
	b.progress(progress)
}

// progressReader reports byte counts while an io.Copy drains it. Reports
// are throttled so per-chunk callbacks do not flood the caller.
type progressReader struct {
	source     io.Reader
	total      int64
	downloaded int64
	lastReport time.Time
	report     func(downloaded int64)
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.source.Read(p)
	if n > 0 {
		r.downloaded += int64(n)
		finished := r.total > 0 && r.downloaded >= r.total
		if r.report != nil && (finished || time.Since(r.lastReport) >= 120*time.Millisecond) {
			r.report(r.downloaded)
			r.lastReport = time.Now()
		}
	}
	return n, err
}
