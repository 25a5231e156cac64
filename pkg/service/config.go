package service

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the HTTP server and job runner settings
type Config struct {
	Server ServerConfig
	Jobs   JobConfig
}

type ServerConfig struct {
	Address        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
	SubmitRate     float64 // job submissions per second, 0 for no limit
	SubmitBurst    int
}

type JobConfig struct {
	MaxWorkers      int
	MaxUploadBytes  int64
	JobTimeout      time.Duration
	CleanupInterval time.Duration
	ResultTTL       time.Duration
	LogLevel        string // level of the per-run optimizer logs
}

// LoadConfig reads the server settings from defaults, an optional config
// file and BISBM_-prefixed environment variables, in increasing priority.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.submit_rate", 0)
	v.SetDefault("server.submit_burst", 10)

	v.SetDefault("jobs.max_workers", 4)
	v.SetDefault("jobs.max_upload_bytes", 32*1024*1024) // 32MB
	v.SetDefault("jobs.job_timeout", 10*time.Minute)
	v.SetDefault("jobs.cleanup_interval", 5*time.Minute)
	v.SetDefault("jobs.result_ttl", time.Hour)
	v.SetDefault("jobs.log_level", "warn")

	v.SetEnvPrefix("bisbm")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Address:        v.GetString("server.address"),
			ReadTimeout:    v.GetDuration("server.read_timeout"),
			WriteTimeout:   v.GetDuration("server.write_timeout"),
			AllowedOrigins: v.GetStringSlice("server.allowed_origins"),
			SubmitRate:     v.GetFloat64("server.submit_rate"),
			SubmitBurst:    v.GetInt("server.submit_burst"),
		},
		Jobs: JobConfig{
			MaxWorkers:      v.GetInt("jobs.max_workers"),
			MaxUploadBytes:  v.GetInt64("jobs.max_upload_bytes"),
			JobTimeout:      v.GetDuration("jobs.job_timeout"),
			CleanupInterval: v.GetDuration("jobs.cleanup_interval"),
			ResultTTL:       v.GetDuration("jobs.result_ttl"),
			LogLevel:        v.GetString("jobs.log_level"),
		},
	}

	if cfg.Jobs.MaxWorkers <= 0 {
		cfg.Jobs.MaxWorkers = 1
	}
	return cfg, nil
}

// DefaultJobConfig returns the job settings used when no configuration is loaded
func DefaultJobConfig() JobConfig {
	return JobConfig{
		MaxWorkers:      4,
		MaxUploadBytes:  32 * 1024 * 1024,
		JobTimeout:      10 * time.Minute,
		CleanupInterval: 5 * time.Minute,
		ResultTTL:       time.Hour,
		LogLevel:        "warn",
	}
}
