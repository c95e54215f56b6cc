package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"video-trimmer/internal/appdirs"
	"video-trimmer/log"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Server struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	// RequestTimeout is the synchronous wait window in seconds. Trim
	// requests hold the connection up to this long before switching to
	// job polling.
	RequestTimeout int `toml:"request_timeout"`
}

type App struct {
	MaxUploadMB int64  `toml:"max_upload_mb"`
	SecretKey   string `toml:"secret_key"`
}

// MaxUploadBytes converts the configured megabyte cap into bytes.
func (a App) MaxUploadBytes() int64 {
	return a.MaxUploadMB * 1024 * 1024
}

type Jobs struct {
	Concurrency int `toml:"concurrency"`
	QueueSize   int `toml:"queue_size"`
}

// Queue configures the optional Redis-backed job queue. When RedisAddr is
// empty, trims run on the in-process worker pool instead.
type Queue struct {
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

func (q Queue) Enabled() bool {
	return strings.TrimSpace(q.RedisAddr) != ""
}

type Preview struct {
	MaxHeight int    `toml:"max_height"`
	Bitrate   string `toml:"bitrate"`
}

// Tools pins the media binaries to explicit paths. Empty values fall back
// to the managed install dir and PATH lookup.
type Tools struct {
	Ffmpeg  string `toml:"ffmpeg"`
	Ffprobe string `toml:"ffprobe"`
}

type Config struct {
	Server  Server  `toml:"server"`
	App     App     `toml:"app"`
	Jobs    Jobs    `toml:"jobs"`
	Queue   Queue   `toml:"queue"`
	Preview Preview `toml:"preview"`
	Tools   Tools   `toml:"tools"`
}

var Conf Config

var resolveConfigPath = func() (string, error) {
	paths, err := appdirs.Resolve()
	if err != nil {
		return "", err
	}
	return paths.ConfigFile, nil
}

// ResolveConfigPath reports where the config file lives for the current
// environment (portable, container, or home directory).
func ResolveConfigPath() (string, error) {
	return resolveConfigPath()
}

func defaultConfig() Config {
	return Config{
		Server: Server{
			Host:           "0.0.0.0",
			Port:           8080,
			RequestTimeout: 300,
		},
		App: App{
			MaxUploadMB: 500,
			SecretKey:   "dev-secret-key-change-in-production",
		},
		Jobs: Jobs{
			Concurrency: 2,
			QueueSize:   128,
		},
		Preview: Preview{
			MaxHeight: 720,
			Bitrate:   "2000k",
		},
	}
}

// LoadOrCreateConfig reads config.toml, writing the defaults first when the
// file does not exist yet. Environment overrides (PORT, HOST, SECRET_KEY,
// REDIS_ADDR) are applied after loading. Returns true when a new file was
// created.
func LoadOrCreateConfig() (bool, error) {
	_ = godotenv.Load()

	path, err := resolveConfigPath()
	if err != nil {
		return false, err
	}

	created := false
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		Conf = defaultConfig()
		if err := SaveConfig(); err != nil {
			return false, err
		}
		created = true
	} else {
		if _, err := toml.DecodeFile(path, &Conf); err != nil {
			return false, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	applyEnvOverrides()
	return created, nil
}

// LoadConfig wraps LoadOrCreateConfig with logging. Returns false when the
// process should not continue.
func LoadConfig() bool {
	created, err := LoadOrCreateConfig()
	if err != nil {
		log.GetLogger().Error("failed to load config", zap.Error(err))
		return false
	}
	if created {
		path, _ := ResolveConfigPath()
		log.GetLogger().Info("created default config", zap.String("path", path))
	}
	return true
}

// CheckConfig validates the loaded configuration and fills zero values with
// usable defaults so a hand-edited config cannot wedge startup.
func CheckConfig() error {
	if Conf.Server.Port <= 0 || Conf.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", Conf.Server.Port)
	}
	if strings.TrimSpace(Conf.Server.Host) == "" {
		Conf.Server.Host = "0.0.0.0"
	}
	if Conf.Server.RequestTimeout <= 0 {
		Conf.Server.RequestTimeout = 300
	}
	if Conf.Jobs.Concurrency <= 0 {
		Conf.Jobs.Concurrency = 2
	}
	if Conf.Jobs.QueueSize <= 0 {
		Conf.Jobs.QueueSize = 128
	}
	if Conf.App.MaxUploadMB <= 0 {
		Conf.App.MaxUploadMB = 500
	}
	if Conf.Preview.MaxHeight <= 0 {
		Conf.Preview.MaxHeight = 720
	}
	if strings.TrimSpace(Conf.Preview.Bitrate) == "" {
		Conf.Preview.Bitrate = "2000k"
	}
	return nil
}

// SaveConfig writes the current Conf to the resolved config path, creating
// parent directories as needed.
func SaveConfig() error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return toml.NewEncoder(file).Encode(Conf)
}

func applyEnvOverrides() {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		if value, err := strconv.Atoi(port); err == nil {
			Conf.Server.Port = value
		}
	}
	if host := strings.TrimSpace(os.Getenv("HOST")); host != "" {
		Conf.Server.Host = host
	}
	if key := os.Getenv("SECRET_KEY"); key != "" {
		Conf.App.SecretKey = key
	}
	if addr := strings.TrimSpace(os.Getenv("REDIS_ADDR")); addr != "" {
		Conf.Queue.RedisAddr = addr
	}
}
