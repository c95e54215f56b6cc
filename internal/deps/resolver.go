// Package deps locates the external media binaries the trimmer shells out
// to (ffmpeg and ffprobe) and, on Windows, can install them on demand.
package deps

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"video-trimmer/config"
	"video-trimmer/internal/appdirs"
	"video-trimmer/internal/storage"
	"video-trimmer/log"
)

// Dependency ids. Both binaries are hard requirements: every operation the
// trimmer offers runs through one of them.
const (
	DependencyIDFFmpeg  = "ffmpeg"
	DependencyIDFFprobe = "ffprobe"
)

type DependencyStatus string

const (
	DependencyStatusOK      DependencyStatus = "ok"
	DependencyStatusMissing DependencyStatus = "missing"
	DependencyStatusError   DependencyStatus = "error"
)

// DependencySource tells where a binary was found: an explicit path held in
// storage (config pin or managed install) or a $PATH lookup.
type DependencySource string

const (
	DependencySourceStorage  DependencySource = "storage"
	DependencySourceLookPath DependencySource = "lookpath"
)

type DependencySpec struct {
	ID          string
	Name        string
	Command     string
	StoragePath string
	Hint        string
}

type DependencyState struct {
	DependencySpec
	ResolvedPath string
	Status       DependencyStatus
	Source       DependencySource
	Error        string
}

// PathResolver wraps the filesystem lookups so tests can fake them.
type PathResolver struct {
	LookPath func(file string) (string, error)
	AbsPath  func(path string) (string, error)
	Stat     func(name string) (os.FileInfo, error)
}

func NewPathResolver() PathResolver {
	return PathResolver{
		LookPath: exec.LookPath,
		AbsPath:  filepath.Abs,
		Stat:     os.Stat,
	}
}

// Resolve reports where one dependency lives. A configured storage path wins
// over $PATH; a configured path that does not exist is surfaced as missing
// rather than silently falling back.
func (r PathResolver) Resolve(spec DependencySpec) DependencyState {
	if configured := strings.TrimSpace(spec.StoragePath); configured != "" {
		return r.resolveConfigured(spec, configured)
	}
	return r.resolveFromPath(spec)
}

func (r PathResolver) resolveConfigured(spec DependencySpec, configured string) DependencyState {
	state := DependencyState{DependencySpec: spec, Source: DependencySourceStorage}

	resolved, err := r.locate(configured)
	if err == nil {
		state.Status = DependencyStatusOK
		state.ResolvedPath = resolved
		return state
	}

	// Echo back where we looked so the report is actionable.
	if abs, absErr := r.AbsPath(configured); absErr == nil {
		state.ResolvedPath = abs
	} else {
		state.ResolvedPath = configured
	}
	state.Error = err.Error()
	state.Status = DependencyStatusError
	if isMissingPathError(err) {
		state.Status = DependencyStatusMissing
	}
	return state
}

func (r PathResolver) resolveFromPath(spec DependencySpec) DependencyState {
	state := DependencyState{DependencySpec: spec, Source: DependencySourceLookPath}

	resolved, err := r.LookPath(spec.Command)
	if err == nil {
		state.Status = DependencyStatusOK
		state.ResolvedPath = resolved
		return state
	}

	state.Error = err.Error()
	state.Status = DependencyStatusError
	if isMissingPathError(err) {
		state.Status = DependencyStatusMissing
	}
	return state
}

// locate accepts either a bare command name or a filesystem path and
// returns the absolute location of an existing binary.
func (r PathResolver) locate(pathOrCommand string) (string, error) {
	if resolved, err := r.LookPath(pathOrCommand); err == nil {
		return resolved, nil
	}

	abs, err := r.AbsPath(pathOrCommand)
	if err != nil {
		return "", err
	}
	if _, err = r.Stat(abs); err != nil {
		return "", err
	}
	return abs, nil
}

func ResolveDependencyStates(specs []DependencySpec, resolver PathResolver) []DependencyState {
	resolved := make([]DependencyState, 0, len(specs))
	for _, spec := range specs {
		resolved = append(resolved, resolver.Resolve(spec))
	}
	return resolved
}

func ResolveDependencyInventory() []DependencyState {
	return ResolveDependencyStates(BuildDependencyInventory(), NewPathResolver())
}

func BuildDependencyInventory() []DependencySpec {
	return []DependencySpec{
		{
			ID:          DependencyIDFFmpeg,
			Name:        "ffmpeg",
			Command:     "ffmpeg",
			StoragePath: storage.FfmpegPath,
			Hint:        "Required for trimming and preview transcoding.",
		},
		{
			ID:          DependencyIDFFprobe,
			Name:        "ffprobe",
			Command:     "ffprobe",
			StoragePath: storage.FfprobePath,
			Hint:        "Required for media duration and resolution detection.",
		},
	}
}

// CheckDependency resolves the dependency inventory, adopts resolved binary
// paths into storage, and fails when any binary cannot be found.
// Paths pinned in [tools] win over the managed install dir and PATH.
func CheckDependency() error {
	applyConfiguredToolPaths()
	EnsureManagedDependencyPaths()

	states := ResolveDependencyInventory()
	for _, state := range states {
		if state.Status == DependencyStatusOK {
			setStoragePathForDependency(state.ID, state.ResolvedPath)
			log.GetLogger().Info("Dependency resolved",
				zap.String("name", state.Name),
				zap.String("path", state.ResolvedPath),
				zap.String("source", string(state.Source)))
			continue
		}
		log.GetLogger().Warn("Dependency unavailable",
			zap.String("name", state.Name),
			zap.String("status", string(state.Status)),
			zap.String("error", state.Error))
	}

	missing := missingDependencies(states)
	if len(missing) > 0 {
		log.GetLogger().Error("Missing required dependencies",
			zap.Strings("names", missing))
		return fmt.Errorf("missing required dependencies: %s. Please install FFmpeg and ensure it is on PATH", strings.Join(missing, ", "))
	}
	return nil
}

func applyConfiguredToolPaths() {
	if path := strings.TrimSpace(config.Conf.Tools.Ffmpeg); path != "" {
		storage.FfmpegPath = path
	}
	if path := strings.TrimSpace(config.Conf.Tools.Ffprobe); path != "" {
		storage.FfprobePath = path
	}
}

func missingDependencies(states []DependencyState) []string {
	var missing []string
	for _, state := range states {
		if state.Status != DependencyStatusOK {
			missing = append(missing, state.Name)
		}
	}
	return missing
}

func FormatDependencyReport(states []DependencyState) string {
	if len(states) == 0 {
		return "No dependencies to diagnose."
	}

	var builder strings.Builder
	builder.WriteString("Dependency status")

	for _, state := range states {
		resolvedPath := strings.TrimSpace(state.ResolvedPath)
		if resolvedPath == "" {
			resolvedPath = "unknown"
		}

		source := strings.TrimSpace(string(state.Source))
		if source == "" {
			source = "n/a"
		}

		builder.WriteString("\n")
		builder.WriteString(fmt.Sprintf("- %s: %s | path=%s | source=%s", state.Name, state.Status, resolvedPath, source))
		if state.Error != "" {
			builder.WriteString("\n")
			builder.WriteString("  error: ")
			builder.WriteString(state.Error)
		}
		if state.Hint != "" {
			builder.WriteString("\n")
			builder.WriteString("  hint: ")
			builder.WriteString(state.Hint)
		}
	}

	return builder.String()
}

func isMissingPathError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, exec.ErrNotFound) {
		return true
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		if errors.Is(pathErr.Err, os.ErrNotExist) {
			return true
		}
	}

	var execErr *exec.Error
	if errors.As(err, &execErr) {
		if errors.Is(execErr.Err, exec.ErrNotFound) {
			return true
		}
	}

	message := strings.ToLower(err.Error())
	return strings.Contains(message, "not found") || strings.Contains(message, "cannot find")
}

// Managed install layout: <bin dir>/<dependency id>/<executable>. Only the
// Windows installer writes it, but adoption runs on every platform so a
// previous install keeps working after its storage entry is lost.

func managedExecutableName(dependencyID string) (string, bool) {
	switch normalizeDependencyID(dependencyID) {
	case DependencyIDFFmpeg:
		return "ffmpeg.exe", true
	case DependencyIDFFprobe:
		return "ffprobe.exe", true
	}
	return "", false
}

func ResolveManagedDependencyPath(dependencyID string) (string, error) {
	root, err := managedInstallRoot()
	if err != nil {
		return "", err
	}
	return managedPathUnder(root, dependencyID)
}

func managedPathUnder(root, dependencyID string) (string, error) {
	executable, ok := managedExecutableName(dependencyID)
	if !ok {
		return "", fmt.Errorf("unsupported dependency id %q", dependencyID)
	}
	return filepath.Join(root, normalizeDependencyID(dependencyID), executable), nil
}

func managedInstallRoot() (string, error) {
	paths, err := appdirs.Resolve()
	if err != nil {
		return "", err
	}
	return appdirs.BinDirFor(paths), nil
}

// EnsureManagedDependencyPaths normalizes the storage paths: entries that
// still resolve are kept in absolute form, dead or empty entries are
// replaced with the managed install when one is present on disk.
func EnsureManagedDependencyPaths() {
	adoptManagedPaths(NewPathResolver(), managedInstallRoot)
}

func adoptManagedPaths(resolver PathResolver, installRoot func() (string, error)) {
	for _, dependencyID := range []string{DependencyIDFFmpeg, DependencyIDFFprobe} {
		if existing := strings.TrimSpace(getStoragePathForDependency(dependencyID)); existing != "" {
			if resolved, err := resolver.locate(existing); err == nil {
				setStoragePathForDependency(dependencyID, resolved)
				continue
			}
		}

		root, err := installRoot()
		if err != nil {
			continue
		}
		managed, err := managedPathUnder(root, dependencyID)
		if err != nil {
			continue
		}
		if _, err = resolver.Stat(managed); err != nil {
			continue
		}
		setStoragePathForDependency(dependencyID, managed)
	}
}

func getStoragePathForDependency(dependencyID string) string {
	switch normalizeDependencyID(dependencyID) {
	case DependencyIDFFmpeg:
		return storage.FfmpegPath
	case DependencyIDFFprobe:
		return storage.FfprobePath
	default:
		return ""
	}
}

func setStoragePathForDependency(dependencyID, path string) {
	switch normalizeDependencyID(dependencyID) {
	case DependencyIDFFmpeg:
		storage.FfmpegPath = path
	case DependencyIDFFprobe:
		storage.FfprobePath = path
	}
}

func normalizeDependencyID(dependencyID string) string {
	return strings.ToLower(strings.TrimSpace(dependencyID))
}
