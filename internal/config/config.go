package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	// Example store
	ExamplesDir string
	TrashDir    string
	// Reference material fed to the generator
	ReferenceImagesDir  string
	ReferenceSampleSize int
	// LLM Configuration
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	DefaultProvider string
	DefaultModel    string
	PromptProfile   string
	Temperature     float64
	MaxTokens       int
	// Generation policy
	VariantCount          int
	GenerationConcurrency int
	GenerationRatePerSec  float64
	GenerationTimeout     time.Duration
	ParserStrict          bool
	// Admin gate
	AdminPassword    string
	AdminTokenSecret string
	AdminSessionTTL  time.Duration
	// Logging
	LogDir      string
	LogMaxFiles int
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	examplesDir := getEnv("EXAMPLES_DIR", "data/examples")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		ExamplesDir: examplesDir,
		TrashDir:    getEnv("TRASH_DIR", examplesDir+"_trash"),
		// Reference material
		ReferenceImagesDir:  getEnv("REFERENCE_IMAGES_DIR", ""),
		ReferenceSampleSize: getEnvInt("REFERENCE_SAMPLE_SIZE", 3),
		// LLM Configuration
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		DefaultProvider: getEnv("DEFAULT_PROVIDER", "openai"),
		DefaultModel:    getEnv("DEFAULT_MODEL", "gpt-4o"),
		PromptProfile:   getEnv("PROMPT_PROFILE", "physics"),
		Temperature:     getEnvFloat("TEMPERATURE", 0.8),
		MaxTokens:       getEnvInt("MAX_TOKENS", 4096),
		// Generation policy
		VariantCount:          getEnvInt("VARIANT_COUNT", 3),
		GenerationConcurrency: getEnvInt("GENERATION_CONCURRENCY", 1),
		GenerationRatePerSec:  getEnvFloat("GENERATION_RATE_PER_SEC", 0),
		GenerationTimeout:     getEnvDuration("GENERATION_TIMEOUT", 2*time.Minute),
		ParserStrict:          getEnv("PARSER_STRICT", "false") == "true",
		// Admin gate
		AdminPassword:    getEnv("ADMIN_PASSWORD", ""),
		AdminTokenSecret: getEnv("ADMIN_TOKEN_SECRET", ""),
		AdminSessionTTL:  getEnvDuration("ADMIN_SESSION_TTL", 8*time.Hour),
		// Logging
		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: getEnvInt("LOG_MAX_FILES", 10),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// GenerationWriteTimeout bounds one HTTP response that may run MaxVariants
// attempts. Attempts run in waves of GenerationConcurrency, each wave taking
// up to GenerationTimeout, plus any pacing from GenerationRatePerSec.
func (c *Config) GenerationWriteTimeout() time.Duration {
	conc := max(c.GenerationConcurrency, 1)
	waves := (MaxVariants + conc - 1) / conc
	timeout := c.GenerationTimeout*time.Duration(waves) + 30*time.Second
	if c.GenerationRatePerSec > 0 {
		timeout += time.Duration(float64(MaxVariants) / c.GenerationRatePerSec * float64(time.Second))
	}
	return timeout
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("90s", "2m")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
