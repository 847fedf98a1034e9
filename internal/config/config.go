// Package config holds all focusroom configuration: Ollama endpoints, the
// Redis session cache, the persona document store, and room behavior.
// Configuration is loaded from .focusroom/config.yaml with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all focusroom configuration.
type Config struct {
	// LLM configuration (local Ollama)
	LLM LLMConfig `yaml:"llm"`

	// Vision configuration (Ollama cloud, for !image analysis)
	Vision VisionConfig `yaml:"vision"`

	// Redis session cache
	Redis RedisConfig `yaml:"redis"`

	// Persona document store
	Store StoreConfig `yaml:"store"`

	// Room behavior
	Room RoomConfig `yaml:"room"`

	// Image intake limits
	Image ImageConfig `yaml:"image"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the local Ollama chat model.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	Timeout     string  `yaml:"timeout"`
}

// VisionConfig configures the Ollama cloud vision model used for image
// analysis. APIKey empty disables !image.
type VisionConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
	Timeout string `yaml:"timeout"`
}

// RedisConfig configures the session history cache.
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	SessionTTL string `yaml:"session_ttl"`
	ImageTTL   string `yaml:"image_ttl"`
}

// StoreConfig configures the SQLite persona document store.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
	PersonasDir  string `yaml:"personas_dir"`
}

// RoomConfig configures room behavior.
type RoomConfig struct {
	DefaultTopic  string `yaml:"default_topic"`
	ObserveRounds int    `yaml:"observe_rounds"`
	SummariesDir  string `yaml:"summaries_dir"`
}

// ImageConfig configures image intake validation.
type ImageConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

// LoggingConfig configures the category file logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL:     "http://localhost:11434",
			Model:       "llama3.1:8b",
			Temperature: 0.75,
			Timeout:     "120s",
		},
		Vision: VisionConfig{
			BaseURL: "https://ollama.com",
			Model:   "qwen3-vl:235b-cloud",
			Timeout: "120s",
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			SessionTTL: "24h",
			ImageTTL:   "168h", // 7 days
		},
		Store: StoreConfig{
			DatabasePath: ".focusroom/personas.db",
			PersonasDir:  "personas",
		},
		Room: RoomConfig{
			DefaultTopic:  "PlayStation 5",
			ObserveRounds: 3,
			SummariesDir:  "chat_summaries",
		},
		Image: ImageConfig{
			MaxBytes: 20 * 1024 * 1024,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults when
// the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// LoadFromWorkspace loads config from <workspace>/.focusroom/config.yaml.
func LoadFromWorkspace(workspace string) (*Config, error) {
	return Load(filepath.Join(workspace, ".focusroom", "config.yaml"))
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment always wins over the file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		c.Vision.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_VISION_MODEL"); v != "" {
		c.Vision.Model = v
	}
	if v := os.Getenv("OLLAMA_API_KEY"); v != "" {
		c.Vision.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = db
		}
	}
	if v := os.Getenv("REDIS_SESSION_TTL"); v != "" {
		// Accepts either a Go duration or bare seconds.
		if _, err := time.ParseDuration(v); err == nil {
			c.Redis.SessionTTL = v
		} else if secs, err := strconv.Atoi(v); err == nil {
			c.Redis.SessionTTL = (time.Duration(secs) * time.Second).String()
		}
	}
	if v := os.Getenv("FOCUSROOM_DB"); v != "" {
		c.Store.DatabasePath = v
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetVisionTimeout returns the vision call timeout as a duration.
func (c *Config) GetVisionTimeout() time.Duration {
	d, err := time.ParseDuration(c.Vision.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetSessionTTL returns the session history TTL as a duration.
func (c *Config) GetSessionTTL() time.Duration {
	d, err := time.ParseDuration(c.Redis.SessionTTL)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// GetImageTTL returns the image analysis cache TTL as a duration.
func (c *Config) GetImageTTL() time.Duration {
	d, err := time.ParseDuration(c.Redis.ImageTTL)
	if err != nil {
		return 7 * 24 * time.Hour
	}
	return d
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if c.Room.ObserveRounds < 1 {
		return fmt.Errorf("room.observe_rounds must be >= 1")
	}
	return nil
}
