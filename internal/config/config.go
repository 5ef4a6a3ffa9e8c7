package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	filePath := os.Getenv(envKey + "_FILE")
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	os.Setenv(envKey, strings.TrimSpace(string(data)))
}

type Config struct {
	Server    Server
	Storage   Storage
	Separator Separator
	Redis     Redis
	RateLimit RateLimit
}

type Server struct {
	Port     string
	Env      string
	LogLevel string
}

type Storage struct {
	UploadDir         string
	OutputDir         string
	MaxUploadBytes    int64
	AllowedExtensions []string
}

type Separator struct {
	Binary  string
	Args    []string // prepended before inputPath and outputDir
	Timeout int      // seconds
	Tracks  []string
	FileExt string
}

type Redis struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type RateLimit struct {
	UploadPerHour   int
	SeparatePerHour int
}

// TimeoutDuration returns the worker wall-clock bound as a duration.
func (s Separator) TimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

func Load() (*Config, error) {
	readSecret("REDIS_PASSWORD")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("storage.upload_dir", "UPLOAD_DIR")
	_ = viper.BindEnv("storage.output_dir", "OUTPUT_DIR")
	_ = viper.BindEnv("storage.max_upload_bytes", "MAX_UPLOAD_BYTES")
	_ = viper.BindEnv("separator.binary", "SEPARATOR_BINARY")
	_ = viper.BindEnv("separator.timeout", "SEPARATOR_TIMEOUT")
	_ = viper.BindEnv("redis.enabled", "REDIS_ENABLED")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")

	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")

	viper.SetDefault("storage.upload_dir", "uploads")
	viper.SetDefault("storage.output_dir", "separated")
	viper.SetDefault("storage.max_upload_bytes", int64(50*1024*1024))
	viper.SetDefault("storage.allowed_extensions", []string{".mp3", ".wav"})

	viper.SetDefault("separator.binary", "python3")
	viper.SetDefault("separator.args", []string{"services/separator.py"})
	viper.SetDefault("separator.timeout", 600)
	viper.SetDefault("separator.tracks", []string{"vocals", "drums", "bass", "other"})
	viper.SetDefault("separator.file_ext", ".wav")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("ratelimit.upload_per_hour", 50)
	viper.SetDefault("ratelimit.separate_per_hour", 20)

	// Config file is optional
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: Server{
			Port:     viper.GetString("server.port"),
			Env:      viper.GetString("server.env"),
			LogLevel: viper.GetString("server.log_level"),
		},
		Storage: Storage{
			UploadDir:         viper.GetString("storage.upload_dir"),
			OutputDir:         viper.GetString("storage.output_dir"),
			MaxUploadBytes:    viper.GetInt64("storage.max_upload_bytes"),
			AllowedExtensions: viper.GetStringSlice("storage.allowed_extensions"),
		},
		Separator: Separator{
			Binary:  viper.GetString("separator.binary"),
			Args:    viper.GetStringSlice("separator.args"),
			Timeout: viper.GetInt("separator.timeout"),
			Tracks:  viper.GetStringSlice("separator.tracks"),
			FileExt: viper.GetString("separator.file_ext"),
		},
		Redis: Redis{
			Enabled:  viper.GetBool("redis.enabled"),
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		RateLimit: RateLimit{
			UploadPerHour:   viper.GetInt("ratelimit.upload_per_hour"),
			SeparatePerHour: viper.GetInt("ratelimit.separate_per_hour"),
		},
	}

	return cfg, nil
}
