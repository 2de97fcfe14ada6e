// Package config loads server configuration from a TOML file with
// environment-variable overrides.
//
// Every field has a working default so `nimantran serve` runs with no
// config file at all: in-memory roster and ledger, filesystem storage
// under ./data, file-backed font cache. Environment variables override
// file values, which override defaults.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/pawanm992002/nimantran-backend/pkg/batch"
	"github.com/pawanm992002/nimantran-backend/pkg/errors"
)

// Config is the full server configuration.
type Config struct {
	Server  Server  `toml:"server"`
	Mongo   Mongo   `toml:"mongo"`
	Redis   Redis   `toml:"redis"`
	Storage Storage `toml:"storage"`
	Render  Render  `toml:"render"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr            string        `toml:"addr"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// Mongo configures the roster and ledger store. An empty URI selects the
// in-memory implementations (local development, tests).
type Mongo struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// Redis configures the shared font cache. An empty address falls back to
// the file cache under CacheDir.
type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// Storage configures the artifact store and the font cache directory.
type Storage struct {
	Dir      string `toml:"dir"`
	BaseURL  string `toml:"base_url"`
	CacheDir string `toml:"cache_dir"`
}

// Render configures the pipeline's execution limits and external tools.
type Render struct {
	FFmpegPath  string `toml:"ffmpeg_path"`
	FFprobePath string `toml:"ffprobe_path"`

	// ChunkSize windows the fan-out of video batches only; image and pdf
	// batches always render the whole roster at once.
	ChunkSize    int           `toml:"chunk_size"`
	GuestTimeout time.Duration `toml:"guest_timeout"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":4000",
			ShutdownTimeout: 10 * time.Second,
		},
		Mongo: Mongo{
			Database: "nimantran",
		},
		Storage: Storage{
			Dir:      "data",
			BaseURL:  "http://localhost:4000/files",
			CacheDir: ".fontcache",
		},
		Render: Render{
			FFmpegPath:   "ffmpeg",
			FFprobePath:  "ffprobe",
			ChunkSize:    batch.DefaultChunkSize,
			GuestTimeout: batch.DefaultGuestTimeout,
		},
	}
}

// Load reads path (optional), applies environment overrides and validates.
// An empty path skips the file and uses defaults plus environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, errors.Wrap(errors.ErrCodeValidation, err, "read config %s", path)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for internally inconsistent values.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeValidation, "server.addr must not be empty")
	}
	if c.Storage.Dir == "" {
		return errors.New(errors.ErrCodeValidation, "storage.dir must not be empty")
	}
	if c.Mongo.URI != "" && c.Mongo.Database == "" {
		return errors.New(errors.ErrCodeValidation, "mongo.database is required when mongo.uri is set")
	}
	if c.Render.ChunkSize < 0 {
		return errors.New(errors.ErrCodeValidation, "render.chunk_size must not be negative")
	}
	if c.Render.GuestTimeout < 0 {
		return errors.New(errors.ErrCodeValidation, "render.guest_timeout must not be negative")
	}
	return nil
}

// applyEnv overlays NIMANTRAN_* environment variables onto cfg.
func applyEnv(cfg *Config) {
	setString(&cfg.Server.Addr, "NIMANTRAN_ADDR")
	setString(&cfg.Mongo.URI, "NIMANTRAN_MONGO_URI")
	setString(&cfg.Mongo.Database, "NIMANTRAN_MONGO_DB")
	setString(&cfg.Redis.Addr, "NIMANTRAN_REDIS_ADDR")
	setString(&cfg.Redis.Password, "NIMANTRAN_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "NIMANTRAN_REDIS_DB")
	setString(&cfg.Storage.Dir, "NIMANTRAN_STORAGE_DIR")
	setString(&cfg.Storage.BaseURL, "NIMANTRAN_BASE_URL")
	setString(&cfg.Storage.CacheDir, "NIMANTRAN_CACHE_DIR")
	setString(&cfg.Render.FFmpegPath, "NIMANTRAN_FFMPEG")
	setString(&cfg.Render.FFprobePath, "NIMANTRAN_FFPROBE")
	setInt(&cfg.Render.ChunkSize, "NIMANTRAN_CHUNK_SIZE")
	setDuration(&cfg.Render.GuestTimeout, "NIMANTRAN_GUEST_TIMEOUT")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
