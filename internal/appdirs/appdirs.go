package appdirs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DataDirEnv pins every runtime path under one explicit directory,
	// overriding portable/container/home detection.
	DataDirEnv   = "VIDEOTRIMMER_DATA_DIR"
	PortableEnv  = "VIDEOTRIMMER_PORTABLE"
	ContainerEnv = "RENDER"

	appName        = "VideoTrimmer"
	configFileName = "config.toml"

	containerRoot  = "/app"
	dockerEnvProbe = "/.dockerenv"
)

type Paths struct {
	Portable   bool
	Container  bool
	ConfigDir  string
	ConfigFile string
	LogDir     string
	DataDir    string
	CacheDir   string
}

type resolveDeps struct {
	getenv      func(string) string
	executable  func() (string, error)
	userHomeDir func() (string, error)
	stat        func(string) (os.FileInfo, error)
}

func Resolve() (Paths, error) {
	return resolve(resolveDeps{
		getenv:      os.Getenv,
		executable:  os.Executable,
		userHomeDir: os.UserHomeDir,
		stat:        os.Stat,
	})
}

func resolve(rawDeps resolveDeps) (Paths, error) {
	deps := withDefaults(rawDeps)
	if dataDir := strings.TrimSpace(deps.getenv(DataDirEnv)); dataDir != "" {
		return explicitPaths(dataDir), nil
	}
	if isFlagEnabled(deps.getenv(PortableEnv)) {
		return resolvePortable(deps)
	}
	if isContainer(deps) {
		return containerPaths(), nil
	}
	return resolveHome(deps)
}

func explicitPaths(dataDir string) Paths {
	configDir := filepath.Join(dataDir, "config")
	return Paths{
		ConfigDir:  configDir,
		ConfigFile: filepath.Join(configDir, configFileName),
		LogDir:     filepath.Join(dataDir, "logs"),
		DataDir:    dataDir,
		CacheDir:   filepath.Join(dataDir, "cache"),
	}
}

func withDefaults(deps resolveDeps) resolveDeps {
	if deps.getenv == nil {
		deps.getenv = os.Getenv
	}
	if deps.executable == nil {
		deps.executable = os.Executable
	}
	if deps.userHomeDir == nil {
		deps.userHomeDir = os.UserHomeDir
	}
	if deps.stat == nil {
		deps.stat = os.Stat
	}
	return deps
}

func resolvePortable(deps resolveDeps) (Paths, error) {
	executablePath, err := deps.executable()
	if err != nil {
		return Paths{}, err
	}

	dataRoot := filepath.Join(filepath.Dir(executablePath), "data")
	configDir := filepath.Join(dataRoot, "config")
	return Paths{
		Portable:   true,
		ConfigDir:  configDir,
		ConfigFile: filepath.Join(configDir, configFileName),
		LogDir:     filepath.Join(dataRoot, "logs"),
		DataDir:    dataRoot,
		CacheDir:   filepath.Join(dataRoot, "cache"),
	}, nil
}

// containerPaths keeps everything under /app, matching the image layout the
// Dockerfile prepares (uploads/, output/, previews/ beside the binary).
func containerPaths() Paths {
	configDir := filepath.Join(containerRoot, "config")
	return Paths{
		Container:  true,
		ConfigDir:  configDir,
		ConfigFile: filepath.Join(configDir, configFileName),
		LogDir:     filepath.Join(containerRoot, "logs"),
		DataDir:    containerRoot,
		CacheDir:   filepath.Join(containerRoot, "cache"),
	}
}

func resolveHome(deps resolveDeps) (Paths, error) {
	home, err := deps.userHomeDir()
	if err != nil {
		return Paths{}, err
	}
	if strings.TrimSpace(home) == "" {
		return Paths{}, errors.New("user home dir is empty")
	}

	dataRoot := filepath.Join(home, appName)
	configDir := filepath.Join(dataRoot, "config")
	return Paths{
		ConfigDir:  configDir,
		ConfigFile: filepath.Join(configDir, configFileName),
		LogDir:     filepath.Join(dataRoot, "logs"),
		DataDir:    dataRoot,
		CacheDir:   filepath.Join(dataRoot, "cache"),
	}, nil
}

func isContainer(deps resolveDeps) bool {
	if strings.TrimSpace(deps.getenv(ContainerEnv)) != "" {
		return true
	}
	_, err := deps.stat(dockerEnvProbe)
	return err == nil
}

func isFlagEnabled(value string) bool {
	normalized := strings.TrimSpace(strings.ToLower(value))
	return normalized == "1" || normalized == "true"
}
