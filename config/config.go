package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/apex/log"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// DefaultSystemInstruction is prepended to every user prompt sent upstream.
const DefaultSystemInstruction = `Sei un assistente AI educativo per simulazioni cliniche.
Devi SEMPRE rispondere con un testo completo di almeno 5-8 frasi in italiano,
spiegando:
1) che cosa si vede o quali sintomi sono descritti,
2) quali possibili cause generiche (ipotesi, non diagnosi definitive),
3) quando è importante rivolgersi subito a un medico o al pronto soccorso,
4) che questa risposta è solo a scopo didattico e non sostituisce un medico.
Non interrompere la risposta a metà frase e non lasciare frasi incomplete.`

// Config holds all configuration for the gemini proxy service.
// It is built once at startup and never mutated afterwards.
type Config struct {
	// Server configuration
	Port         string `env:"PORT"`
	MaxBodyBytes int64  `env:"MAX_BODY_BYTES"`
	// Comma separated list, "*" allows every origin
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	GzipEnabled    bool     `env:"GZIP_ENABLED"`

	// Gemini configuration
	GeminiAPIKey          string        `env:"GEMINI_API_KEY"`
	GeminiModel           string        `env:"GEMINI_MODEL"`
	GeminiBaseURL         string        `env:"GEMINI_BASE_URL"`
	GeminiTemperature     float64       `env:"GEMINI_TEMPERATURE"`
	GeminiMaxOutputTokens int           `env:"GEMINI_MAX_OUTPUT_TOKENS"`
	GeminiTimeout         time.Duration `env:"GEMINI_TIMEOUT"`

	// Relay content
	SystemInstruction string `env:"SYSTEM_INSTRUCTION"`
	NoResponseText    string `env:"NO_RESPONSE_TEXT"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`
}

// Defaults returns the configuration used when no environment overrides are present.
func Defaults() *Config {
	return &Config{
		Port:           "3000",
		MaxBodyBytes:   10 << 20,
		AllowedOrigins: []string{"*"},
		GzipEnabled:    true,

		GeminiModel:           "gemini-2.5-flash-lite",
		GeminiBaseURL:         "https://generativelanguage.googleapis.com/v1beta",
		GeminiTemperature:     0.4,
		GeminiMaxOutputTokens: 1200,
		GeminiTimeout:         60 * time.Second,

		SystemInstruction: DefaultSystemInstruction,
		NoResponseText:    "Nessuna risposta generata.",

		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load loads configuration from an optional .env file and the process environment.
// A missing GEMINI_API_KEY is not an error here: the relay reports it per request.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug(".env file not found, using system environment variables")
		} else {
			log.WithError(err).Warn("failed to read .env file")
		}
	}

	cfg := Defaults()
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that would otherwise fail at request time.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT must not be empty")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}
	if c.GeminiModel == "" {
		return errors.New("GEMINI_MODEL must not be empty")
	}
	if c.GeminiBaseURL == "" {
		return errors.New("GEMINI_BASE_URL must not be empty")
	}
	if c.GeminiTemperature < 0 || c.GeminiTemperature > 2 {
		return fmt.Errorf("GEMINI_TEMPERATURE must be within [0, 2], got %v", c.GeminiTemperature)
	}
	if c.GeminiMaxOutputTokens <= 0 {
		return fmt.Errorf("GEMINI_MAX_OUTPUT_TOKENS must be positive, got %d", c.GeminiMaxOutputTokens)
	}
	if c.GeminiTimeout <= 0 {
		return fmt.Errorf("GEMINI_TIMEOUT must be positive, got %s", c.GeminiTimeout)
	}
	return nil
}

// HasAPIKey reports whether the upstream credential is configured.
func (c *Config) HasAPIKey() bool {
	return c.GeminiAPIKey != ""
}
