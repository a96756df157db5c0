// Package config loads and validates the interview server configuration from a
// TOML file. Secrets (the AI gateway API key, the JWT signing secret) come
// from the environment, optionally via a .env file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// ServerConfig holds HTTP server related configuration.
type ServerConfig struct {
	HostName       string `toml:"hostname"`
	Port           string `toml:"port" validate:"required"`
	HandleCORS     bool   `toml:"handle_cors"`
	RequestTimeout string `toml:"request_timeout"`
}

// GetRequestTimeout returns the per-request timeout. Voice turns make three
// sequential gateway calls, so the default is generous.
func (s *ServerConfig) GetRequestTimeout() time.Duration {
	return parseDurationOr(s.RequestTimeout, 120*time.Second)
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	Enabled      bool   `toml:"enabled"`
	JWTSecretEnv string `toml:"jwt_secret_env"`
}

// JWTSecret resolves the signing secret from the environment.
func (a *AuthConfig) JWTSecret() []byte {
	if a.JWTSecretEnv == "" {
		return nil
	}
	return []byte(os.Getenv(a.JWTSecretEnv))
}

// AIConfig selects models and bounds for the AI gateway.
type AIConfig struct {
	APIKeyEnv          string  `toml:"api_key_env"`
	BaseURL            string  `toml:"base_url"`
	ChatModel          string  `toml:"chat_model"`
	TranscriptionModel string  `toml:"transcription_model"`
	SpeechModel        string  `toml:"speech_model"`
	Voice              string  `toml:"voice"`
	Temperature        float64 `toml:"temperature"`
	MaxTokens          int64   `toml:"max_tokens"`
	RetryAttempts      uint    `toml:"retry_attempts"`
}

// APIKey resolves the gateway API key from the environment.
func (a *AIConfig) APIKey() string {
	if a.APIKeyEnv == "" {
		return os.Getenv("OPENAI_API_KEY")
	}
	return os.Getenv(a.APIKeyEnv)
}

// StoreConfig selects the persistence backends.
type StoreConfig struct {
	// SessionBackend is one of "memory", "kv", or "postgres".
	SessionBackend string `toml:"session_backend" validate:"omitempty,oneof=memory kv postgres"`
	PostgresDSN    string `toml:"postgres_dsn"`
	RedisAddr      string `toml:"redis_addr"`
	RedisPassword  string `toml:"redis_password"`
	RedisDB        int    `toml:"redis_db"`
}

// SessionConfig bounds the session lifecycle.
type SessionConfig struct {
	MaxAge        string `toml:"max_age"`
	SweepInterval string `toml:"sweep_interval"`
	MaxQuestions  int    `toml:"max_questions"`
	CandidateCap  int    `toml:"candidate_cap"`
}

// GetMaxAge returns the maximum session age before auto-completion.
func (s *SessionConfig) GetMaxAge() time.Duration {
	return parseDurationOr(s.MaxAge, 120*time.Minute)
}

// GetSweepInterval returns how often the expiry check runs.
func (s *SessionConfig) GetSweepInterval() time.Duration {
	return parseDurationOr(s.SweepInterval, 5*time.Minute)
}

// VoiceConfig locates the interviewer persona definitions.
type VoiceConfig struct {
	PersonaFile    string `toml:"persona_file"`
	DefaultPersona string `toml:"default_persona"`
}

// ConfigParam holds all configuration parameters for the interview service.
type ConfigParam struct {
	FormatVersion string `toml:"format_version"`

	Server  ServerConfig  `toml:"server" validate:"required"`
	Auth    AuthConfig    `toml:"auth"`
	AI      AIConfig      `toml:"ai"`
	Store   StoreConfig   `toml:"store"`
	Session SessionConfig `toml:"session"`
	Voice   VoiceConfig   `toml:"voice"`
}

var cfg *ConfigParam

// Config returns the current configuration.
func Config() *ConfigParam {
	return cfg
}

// LoadConfig reads the TOML config file, loads the .env file if present,
// applies defaults, and validates the result.
func LoadConfig(path string) error {
	_ = godotenv.Load()

	var c ConfigParam
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return fmt.Errorf("unable to parse config file: %w", err)
	}
	applyDefaults(&c)

	validate := validator.New()
	if err := validate.Struct(&c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cfg = &c
	return nil
}

func applyDefaults(c *ConfigParam) {
	if c.Store.SessionBackend == "" {
		c.Store.SessionBackend = "memory"
	}
	if c.Session.MaxQuestions == 0 {
		c.Session.MaxQuestions = 3
	}
	if c.Session.CandidateCap == 0 {
		c.Session.CandidateCap = 50
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.7
	}
	if c.AI.MaxTokens == 0 {
		c.AI.MaxTokens = 1024
	}
}

// TestInit installs a minimal configuration for tests.
func TestInit() {
	c := ConfigParam{
		Server: ServerConfig{Port: "0"},
	}
	applyDefaults(&c)
	cfg = &c
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
