package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// MemoryDatabase selects the in-process document store instead of Postgres.
const MemoryDatabase = "memory"

type Config struct {
	DatabaseURL    string
	SslCertPath    string
	UploadDir      string
	StorageBackend string
	AwsAccessKey   string
	AwsSecretKey   string
	AwsRegion      string
	BucketName     string
	VisionProvider string
	VisionModel    string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	GeminiAPIKey   string
	PDFTextEngine  string
	DriveEndpoint  string
	JWTSecret      string
	MaxUploadMB    int
	RequestTimeout time.Duration
	CORSOrigins    []string
	SweepInterval  time.Duration
	SweepGrace     time.Duration
	LogLevel       string
	LogFormat      string
	Port           string
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		SslCertPath:    getEnv("SSL_CERT_PATH", ""),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", "local")),
		AwsAccessKey:   getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:   getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:      getEnv("AWS_REGION", "us-east-2"),
		BucketName:     getEnv("BUCKET_NAME", "docshelf-uploads"),
		VisionProvider: strings.ToLower(getEnv("VISION_PROVIDER", "openai")),
		VisionModel:    getEnv("VISION_MODEL", ""),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		PDFTextEngine:  strings.ToLower(getEnv("PDF_TEXT_ENGINE", "native")),
		DriveEndpoint:  getEnv("DRIVE_ENDPOINT", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		MaxUploadMB:    getEnvInt("MAX_UPLOAD_MB", 32),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 0),
		CORSOrigins:    getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		SweepInterval:  getEnvDuration("SWEEP_INTERVAL", 0),
		SweepGrace:     getEnvDuration("SWEEP_GRACE", time.Hour),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
		Port:           getEnv("PORT", "5000"),
	}

	return cfg
}

// Validate reports every setting the selected backends need but did not get.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL not set"))
	}
	switch c.StorageBackend {
	case "local":
		if c.UploadDir == "" {
			errs = append(errs, errors.New("UPLOAD_DIR not set"))
		}
	case "s3":
		if c.AwsAccessKey == "" || c.AwsSecretKey == "" {
			errs = append(errs, errors.New("AWS credentials not set"))
		}
		if c.BucketName == "" {
			errs = append(errs, errors.New("BUCKET_NAME not set"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend))
	}
	switch c.VisionProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY missing"))
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY missing"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown VISION_PROVIDER %q", c.VisionProvider))
	}
	if c.PDFTextEngine != "native" && c.PDFTextEngine != "docconv" {
		errs = append(errs, fmt.Errorf("unknown PDF_TEXT_ENGINE %q", c.PDFTextEngine))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET not set"))
	}
	return errors.Join(errs...)
}

// MaxUploadBytes is the multipart body limit derived from MAX_UPLOAD_MB.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Int("default", def).Msg("not an int, using default")
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Dur("default", def).Msg("not a duration, using default")
		return def
	}
	return d
}

func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
