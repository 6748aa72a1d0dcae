package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port     string
	LogLevel string

	// History store; empty disables it.
	DatabasePath string

	// S3 archive; empty endpoint disables it.
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3BucketName      string
	S3UseSSL          bool

	// OpenAI-compatible generation service (OpenRouter by default).
	LLMAPIKey      string
	LLMBaseURL     string
	LLMModel       string
	LLMVisionModel string
	LLMTimeout     time.Duration
	OCREnabled     bool

	// Scanned-page rendering and recognition
	PdftoppmPath   string
	OCRDPI         int
	OCRMaxPages    int
	OCRConcurrency int

	// Upload limits
	MaxFileSize int64

	ChatRatePerMinute  int
	CORSAllowedOrigins []string
	// X-Forwarded-For is only read from these peers (IPs or CIDRs).
	TrustedProxies []string
}

// LLMConfigured reports whether a generation service can be used.
func (c *Config) LLMConfigured() bool {
	return c.LLMAPIKey != ""
}

func (c *Config) HistoryEnabled() bool {
	return c.DatabasePath != ""
}

func (c *Config) ArchiveEnabled() bool {
	return c.S3Endpoint != ""
}

// WriteTimeout bounds one HTTP response. It covers the slowest upload: every
// OCR batch and the summary call each running to the LLM timeout.
func (c *Config) WriteTimeout() time.Duration {
	batches := (c.OCRMaxPages + c.OCRConcurrency - 1) / c.OCRConcurrency
	return c.LLMTimeout*time.Duration(batches+1) + time.Minute
}

func Load() (*Config, error) {
	timeoutSeconds, err := getEnvInt("LLM_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	maxFileSizeMB, err := getEnvInt("MAX_FILE_SIZE_MB", 10)
	if err != nil {
		return nil, err
	}
	chatRate, err := getEnvInt("CHAT_RATE_PER_MINUTE", 30)
	if err != nil {
		return nil, err
	}
	ocrDPI, err := getEnvInt("OCR_DPI", 150)
	if err != nil {
		return nil, err
	}
	ocrMaxPages, err := getEnvInt("OCR_MAX_PAGES", 20)
	if err != nil {
		return nil, err
	}
	ocrConcurrency, err := getEnvInt("OCR_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}

	model := getEnv("LLM_MODEL", "openai/gpt-4o-mini")

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabasePath:       os.Getenv("DATABASE_PATH"),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:      getEnv("S3_ACCESS_KEY_ID", "minioadmin"),
		S3SecretAccessKey:  getEnv("S3_SECRET_ACCESS_KEY", "minioadmin"),
		S3BucketName:       getEnv("S3_BUCKET_NAME", "lab-reports"),
		S3UseSSL:           getEnv("S3_USE_SSL", "false") == "true",
		LLMAPIKey:          getEnv("LLM_API_KEY", os.Getenv("OPENROUTER_API_KEY")),
		LLMBaseURL:         getEnv("LLM_BASE_URL", "https://openrouter.ai/api/v1"),
		LLMModel:           model,
		LLMVisionModel:     getEnv("LLM_VISION_MODEL", model),
		LLMTimeout:         time.Duration(timeoutSeconds) * time.Second,
		OCREnabled:         getEnv("OCR_ENABLED", "true") == "true",
		PdftoppmPath:       getEnv("PDFTOPPM_PATH", "pdftoppm"),
		OCRDPI:             ocrDPI,
		OCRMaxPages:        ocrMaxPages,
		OCRConcurrency:     ocrConcurrency,
		MaxFileSize:        int64(maxFileSizeMB) << 20,
		ChatRatePerMinute:  chatRate,
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:5174")),
		TrustedProxies:     splitList(os.Getenv("TRUSTED_PROXIES")),
	}

	if _, ok := os.LookupEnv("DATABASE_PATH"); !ok {
		cfg.DatabasePath = "data/reports.db"
	}

	if cfg.LLMTimeout <= 0 {
		return nil, fmt.Errorf("LLM_TIMEOUT_SECONDS must be positive")
	}
	if cfg.MaxFileSize <= 0 {
		return nil, fmt.Errorf("MAX_FILE_SIZE_MB must be positive")
	}
	if cfg.OCRDPI <= 0 || cfg.OCRMaxPages <= 0 || cfg.OCRConcurrency <= 0 {
		return nil, fmt.Errorf("OCR_DPI, OCR_MAX_PAGES and OCR_CONCURRENCY must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
