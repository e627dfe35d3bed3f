package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Upload modes understood by storage.NewUploader.
const (
	UploadModeStub  = "stub"
	UploadModeHTTP  = "http"
	UploadModeS3    = "s3"
	UploadModeLocal = "local"
)

// DefaultModels is the lip-sync model allow-list used when SYNC_MODELS is unset.
var DefaultModels = []string{
	"lipsync-2",
	"lipsync-1.9.0-beta",
	"lipsync-1.8.0",
	"lipsync-1.7.1",
	"lipsync-1.6.0",
}

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv        string
	Port          string
	PublicBaseURL string

	SyncAPIKey         string
	SyncBaseURL        string
	SyncModels         []string
	VoiceProvider      string
	SyncRequestTimeout time.Duration

	UploadMode           string
	UploadBaseURL        string
	UploadAPIKey         string
	UploadRequestTimeout time.Duration
	LocalMediaPath       string
	S3Endpoint           string
	S3AccessKey          string
	S3SecretKey          string
	S3Bucket             string
	S3UseSSL             bool
	S3PresignTTL         time.Duration
	MaxUploadBytes       int64

	DatabaseURL     string
	GeoIPDBPath     string
	DefaultLocale   string
	DisplayTimezone string

	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:               getEnv("APP_ENV", "development"),
		Port:                 port,
		PublicBaseURL:        strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+port), "/"),
		SyncAPIKey:           strings.TrimSpace(os.Getenv("SYNC_API_KEY")),
		SyncBaseURL:          strings.TrimRight(getEnv("SYNC_BASE_URL", "https://api.sync.so/api/generate"), "/"),
		SyncModels:           getEnvList("SYNC_MODELS", DefaultModels),
		VoiceProvider:        getEnv("VOICE_PROVIDER", "elevenlabs"),
		SyncRequestTimeout:   time.Second * time.Duration(getEnvInt("SYNC_REQUEST_TIMEOUT_SECONDS", 30)),
		UploadMode:           strings.ToLower(getEnv("UPLOAD_MODE", UploadModeStub)),
		UploadBaseURL:        strings.TrimSpace(os.Getenv("UPLOAD_BASE_URL")),
		UploadAPIKey:         strings.TrimSpace(os.Getenv("UPLOAD_API_KEY")),
		UploadRequestTimeout: time.Second * time.Duration(getEnvInt("UPLOAD_REQUEST_TIMEOUT_SECONDS", 120)),
		LocalMediaPath:       getEnv("LOCAL_MEDIA_PATH", "./media"),
		S3Endpoint:           strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		S3AccessKey:          strings.TrimSpace(os.Getenv("S3_ACCESS_KEY")),
		S3SecretKey:          strings.TrimSpace(os.Getenv("S3_SECRET_KEY")),
		S3Bucket:             strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3UseSSL:             getEnvBool("S3_USE_SSL", true),
		S3PresignTTL:         time.Minute * time.Duration(getEnvInt("S3_PRESIGN_TTL_MINUTES", 24*60)),
		MaxUploadBytes:       int64(getEnvInt("MAX_UPLOAD_MB", 200)) << 20,
		DatabaseURL:          strings.TrimSpace(os.Getenv("DATABASE_URL")),
		GeoIPDBPath:          os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:        getEnv("DEFAULT_LOCALE", "en"),
		DisplayTimezone:      os.Getenv("DISPLAY_TIMEZONE"),
		HTTPReadTimeout:      time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 60)),
		HTTPWriteTimeout:     time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:      time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:      getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		CORSAllowedOrigins:   getEnvList("CORS_ALLOWED_ORIGINS", nil),
	}

	if len(cfg.SyncModels) == 0 {
		return nil, fmt.Errorf("SYNC_MODELS must name at least one model")
	}

	switch cfg.UploadMode {
	case UploadModeStub, UploadModeLocal:
	case UploadModeHTTP:
		if cfg.UploadBaseURL == "" {
			return nil, fmt.Errorf("UPLOAD_BASE_URL is required when UPLOAD_MODE=http")
		}
	case UploadModeS3:
		if cfg.S3Endpoint == "" || cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_ENDPOINT and S3_BUCKET are required when UPLOAD_MODE=s3")
		}
	default:
		return nil, fmt.Errorf("unsupported UPLOAD_MODE %q", cfg.UploadMode)
	}

	return cfg, nil
}

// DisplayLocation resolves DISPLAY_TIMEZONE, falling back to the server's local zone.
func (c *Config) DisplayLocation() *time.Location {
	if c == nil || strings.TrimSpace(c.DisplayTimezone) == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(strings.TrimSpace(c.DisplayTimezone))
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, dup := seen[part]; dup {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}
