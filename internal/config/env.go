package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	LogLevel       string
	MaxUploadMB    int
	RequestTimeout time.Duration

	// extractive QA backend (Hugging Face inference protocol)
	QAAPIURL   string
	QAAPIToken string
	QATimeout  time.Duration

	ModelRetryAttempts int

	AIAPIKey       string
	GenMaxTokens   int
	GenTemperature float64

	ContextMaxChars int

	OCRLanguage string
	TessdataDir string
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8000"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MaxUploadMB:    getEnvInt("MAX_UPLOAD_MB", 50),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 120*time.Second),

		QAAPIURL:   getEnv("QA_API_URL", "https://api-inference.huggingface.co"),
		QAAPIToken: getEnv("QA_API_TOKEN", ""),
		QATimeout:  getEnvDuration("QA_TIMEOUT", 60*time.Second),

		ModelRetryAttempts: getEnvInt("MODEL_RETRY_ATTEMPTS", 1),

		AIAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GenMaxTokens:   getEnvInt("GEN_MAX_TOKENS", 150),
		GenTemperature: getEnvFloat("GEN_TEMPERATURE", 0.7),

		ContextMaxChars: getEnvInt("CONTEXT_MAX_CHARS", 512),

		OCRLanguage: getEnv("OCR_LANGUAGE", "eng"),
		TessdataDir: getEnv("TESSDATA_PREFIX", ""),
	}

	if cfg.MaxUploadMB <= 0 {
		slog.Warn("config: MAX_UPLOAD_MB must be positive, using 50", "value", cfg.MaxUploadMB)
		cfg.MaxUploadMB = 50
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
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
		slog.Warn("config: not an int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("config: not a float, using default", "key", key, "value", v, "default", def)
		return def
	}
	return f
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config: not a duration, using default", "key", key, "value", v, "default", def.String())
		return def
	}
	return d
}
