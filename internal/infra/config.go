package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	GeoIPDBPath string

	// Text generation.
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	// Illustration prediction service.
	ReplicateAPIToken    string
	ReplicateBaseURL     string
	ReplicateModel       string
	PredictPollTimeout   time.Duration
	PredictPollInterval  time.Duration
	IllustrationsEnabled bool

	// Poster composition.
	FontsDir string
	LogoPath string

	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	MaxActiveJobs      int
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. DATABASE_URL is only enforced by the API binary;
// the offline pipeline tool runs without a database.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		GeoIPDBPath: os.Getenv("GEOIP_DB_PATH"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		ReplicateAPIToken:   os.Getenv("REPLICATE_API_TOKEN"),
		ReplicateBaseURL:    getEnv("REPLICATE_BASE_URL", "https://api.replicate.com/v1"),
		ReplicateModel:      os.Getenv("REPLICATE_MODEL_VERSION"),
		PredictPollTimeout:  time.Second * time.Duration(getEnvInt("PREDICT_POLL_TIMEOUT_SECONDS", 120)),
		PredictPollInterval: time.Millisecond * time.Duration(getEnvInt("PREDICT_POLL_INTERVAL_MS", 1500)),

		FontsDir: getEnv("FONTS_DIR", "./public/fonts"),
		LogoPath: os.Getenv("LOGO_PATH"),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		MaxActiveJobs:    getEnvInt("MAX_ACTIVE_JOBS", 8),
	}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
			}
		}
	}

	// Illustration is best-effort and only attempted when the prediction
	// service is fully configured.
	cfg.IllustrationsEnabled = cfg.ReplicateAPIToken != "" && cfg.ReplicateModel != ""

	if cfg.PredictPollInterval <= 0 {
		return nil, fmt.Errorf("PREDICT_POLL_INTERVAL_MS must be positive")
	}
	if cfg.PredictPollTimeout <= 0 {
		return nil, fmt.Errorf("PREDICT_POLL_TIMEOUT_SECONDS must be positive")
	}
	if cfg.MaxActiveJobs <= 0 {
		return nil, fmt.Errorf("MAX_ACTIVE_JOBS must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
