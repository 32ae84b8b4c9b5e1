// Package config loads server and client settings from flags and the
// environment through viper.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/meur/tiermaker/internal/blob"
	"github.com/meur/tiermaker/internal/storage"
)

// Keys shared by flags and environment variables. The environment variable
// is the upper-cased key.
const (
	KeyPort           = "port"
	KeyBaseURL        = "base_url"
	KeyUploadDir      = "upload_dir"
	KeyStorageType    = "storage_type"
	KeyS3Bucket       = "s3_bucket"
	KeyS3Region       = "s3_region"
	KeyS3Endpoint     = "s3_endpoint"
	KeyS3Prefix       = "s3_prefix"
	KeyGCSBucket      = "gcs_bucket"
	KeyGCSPrefix      = "gcs_prefix"
	KeyCORSOrigins    = "cors_origins"
	KeyRateLimitRPS   = "rate_limit_rps"
	KeyRateLimitBurst = "rate_limit_burst"
	KeyRedisAddr      = "redis_addr"
	KeyRedisPassword  = "redis_password"
	KeyLogLevel       = "log_level"
	KeyLogDev         = "log_dev"
	KeyStaticDir      = "static_dir"
	KeyTrustProxy     = "trust_proxy"

	KeyAPIURL       = "api_url"
	KeyStatePath    = "state_path"
	KeyStateBackend = "state_backend"
	KeyStrict       = "strict"
)

// Server holds the upload server settings.
type Server struct {
	Port           string
	BaseURL        string
	Storage        blob.Config
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	RedisAddr      string
	RedisPassword  string
	LogLevel       string
	LogDev         bool
	StaticDir      string
	TrustProxy     bool
}

// Addr returns the listen address.
func (s Server) Addr() string {
	return ":" + s.Port
}

// Client holds the CLI settings.
type Client struct {
	APIURL       string
	StatePath    string
	StateBackend string
	Strict       bool
	LogLevel     string
	LogDev       bool
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyPort, "5000")
	v.SetDefault(KeyBaseURL, "")
	v.SetDefault(KeyUploadDir, "./uploads")
	v.SetDefault(KeyStorageType, string(blob.TypeFS))
	v.SetDefault(KeyS3Bucket, "")
	v.SetDefault(KeyS3Region, "")
	v.SetDefault(KeyS3Endpoint, "")
	v.SetDefault(KeyS3Prefix, "")
	v.SetDefault(KeyGCSBucket, "")
	v.SetDefault(KeyGCSPrefix, "")
	v.SetDefault(KeyCORSOrigins, "*")
	v.SetDefault(KeyRateLimitRPS, 10.0)
	v.SetDefault(KeyRateLimitBurst, 30)
	v.SetDefault(KeyRedisAddr, "")
	v.SetDefault(KeyRedisPassword, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogDev, false)
	v.SetDefault(KeyStaticDir, "")
	v.SetDefault(KeyTrustProxy, false)

	v.SetDefault(KeyAPIURL, "http://localhost:5000")
	v.SetDefault(KeyStatePath, "./tiermaker.db")
	v.SetDefault(KeyStateBackend, storage.BackendSQLite)
	v.SetDefault(KeyStrict, false)

	v.AutomaticEnv()

	// AutomaticEnv skips empty values. An explicitly empty API_URL means the
	// client runs without an upload server.
	if raw, ok := os.LookupEnv(strings.ToUpper(KeyAPIURL)); ok && strings.TrimSpace(raw) == "" {
		v.SetDefault(KeyAPIURL, "")
	}
	return v
}

// LoadServer reads and validates the server settings.
func LoadServer(v *viper.Viper) (Server, error) {
	cfg := Server{
		Port:    strings.TrimSpace(v.GetString(KeyPort)),
		BaseURL: strings.TrimRight(strings.TrimSpace(v.GetString(KeyBaseURL)), "/"),
		Storage: blob.Config{
			Type:       blob.Type(strings.ToLower(v.GetString(KeyStorageType))),
			Dir:        v.GetString(KeyUploadDir),
			S3Bucket:   v.GetString(KeyS3Bucket),
			S3Region:   v.GetString(KeyS3Region),
			S3Endpoint: v.GetString(KeyS3Endpoint),
			S3Prefix:   v.GetString(KeyS3Prefix),
			GCSBucket:  v.GetString(KeyGCSBucket),
			GCSPrefix:  v.GetString(KeyGCSPrefix),
		},
		CORSOrigins:    splitList(v.GetString(KeyCORSOrigins)),
		RateLimitRPS:   v.GetFloat64(KeyRateLimitRPS),
		RateLimitBurst: v.GetInt(KeyRateLimitBurst),
		RedisAddr:      v.GetString(KeyRedisAddr),
		RedisPassword:  v.GetString(KeyRedisPassword),
		LogLevel:       v.GetString(KeyLogLevel),
		LogDev:         v.GetBool(KeyLogDev),
		StaticDir:      strings.TrimSpace(v.GetString(KeyStaticDir)),
		TrustProxy:     v.GetBool(KeyTrustProxy),
	}

	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port < 1 || port > 65535 {
		return Server{}, fmt.Errorf("port must be a number between 1 and 65535, got %q", cfg.Port)
	}
	if err := validateBaseURL(KeyBaseURL, cfg.BaseURL); err != nil {
		return Server{}, err
	}
	switch cfg.Storage.Type {
	case blob.TypeFS:
		if strings.TrimSpace(cfg.Storage.Dir) == "" {
			return Server{}, fmt.Errorf("%s is required for fs storage", KeyUploadDir)
		}
	case blob.TypeS3:
		if cfg.Storage.S3Bucket == "" {
			return Server{}, fmt.Errorf("%s is required for s3 storage", KeyS3Bucket)
		}
	case blob.TypeGCS:
		if cfg.Storage.GCSBucket == "" {
			return Server{}, fmt.Errorf("%s is required for gcs storage", KeyGCSBucket)
		}
	default:
		return Server{}, fmt.Errorf("unsupported %s %q", KeyStorageType, cfg.Storage.Type)
	}
	if cfg.RateLimitRPS < 0 || cfg.RateLimitBurst < 0 {
		return Server{}, fmt.Errorf("rate limits must not be negative")
	}
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 1
	}
	return cfg, nil
}

// LoadClient reads and validates the client settings.
func LoadClient(v *viper.Viper) (Client, error) {
	cfg := Client{
		APIURL:       strings.TrimRight(strings.TrimSpace(v.GetString(KeyAPIURL)), "/"),
		StatePath:    strings.TrimSpace(v.GetString(KeyStatePath)),
		StateBackend: strings.ToLower(strings.TrimSpace(v.GetString(KeyStateBackend))),
		Strict:       v.GetBool(KeyStrict),
		LogLevel:     v.GetString(KeyLogLevel),
		LogDev:       v.GetBool(KeyLogDev),
	}
	if err := validateBaseURL(KeyAPIURL, cfg.APIURL); err != nil {
		return Client{}, err
	}
	if cfg.StatePath == "" {
		return Client{}, fmt.Errorf("%s is required", KeyStatePath)
	}
	switch cfg.StateBackend {
	case storage.BackendSQLite, storage.BackendJSON:
	default:
		return Client{}, fmt.Errorf("unsupported %s %q", KeyStateBackend, cfg.StateBackend)
	}
	return cfg, nil
}

func validateBaseURL(key, raw string) error {
	if raw == "" {
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s must include scheme and host (e.g. http://localhost:5000)", key)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", key)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
