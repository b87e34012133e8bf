package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int           `yaml:"port"`
		Debug          bool          `yaml:"debug"`
		MaxBodyMB      int64         `yaml:"maxBodyMB"`
		ReadTimeout    time.Duration `yaml:"readTimeout"`
		WriteTimeout   time.Duration `yaml:"writeTimeout"`
		AllowedOrigins []string      `yaml:"allowedOrigins"`
	} `yaml:"server"`

	LLM struct {
		APIKey    string        `yaml:"apiKey"`
		BaseURL   string        `yaml:"baseURL"`
		Model     string        `yaml:"model"`
		MaxTokens int           `yaml:"maxTokens"`
		Timeout   time.Duration `yaml:"timeout"`
		JSONMode  bool          `yaml:"jsonMode"`
	} `yaml:"llm"`

	Analysis struct {
		MaxChars     int  `yaml:"maxChars"`
		StrictSchema bool `yaml:"strictSchema"`
	} `yaml:"analysis"`

	Batch struct {
		Concurrency int `yaml:"concurrency"`
	} `yaml:"batch"`

	Staging struct {
		Dir string `yaml:"dir"`
	} `yaml:"staging"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default returns the configuration used when neither a file nor the
// environment say otherwise.
func Default() *Config {
	var c Config
	c.Server.Port = 8000
	c.Server.MaxBodyMB = 50
	c.Server.ReadTimeout = 30 * time.Second
	c.Server.WriteTimeout = 5 * time.Minute
	c.Server.AllowedOrigins = []string{"*"}
	c.LLM.Model = "gpt-4o"
	c.LLM.MaxTokens = 8192
	c.LLM.Timeout = 2 * time.Minute
	c.LLM.JSONMode = true
	c.Analysis.MaxChars = 15000
	c.Batch.Concurrency = 1
	c.Log.Level = "info"
	c.Log.Format = "json"
	return &c
}

// Load reads the optional YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var errs []error
	setInt := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("parse %s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	setBool := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			*dst = strings.EqualFold(v, "true") || v == "1"
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("parse %s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	setString := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v, ok := lookup(key); ok {
				*dst = v
				return
			}
		}
	}

	setInt("PORT", &c.Server.Port)
	setBool("DEBUG", &c.Server.Debug)
	if v, ok := lookup("MAX_BODY_MB"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("parse MAX_BODY_MB: %w", err))
		} else {
			c.Server.MaxBodyMB = n
		}
	}
	setDuration("SERVER_READ_TIMEOUT", &c.Server.ReadTimeout)
	setDuration("SERVER_WRITE_TIMEOUT", &c.Server.WriteTimeout)
	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}

	setString(&c.LLM.APIKey, "LLM_API_KEY", "OPENAI_API_KEY")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")
	setString(&c.LLM.Model, "LLM_MODEL")
	setInt("LLM_MAX_TOKENS", &c.LLM.MaxTokens)
	setDuration("LLM_TIMEOUT", &c.LLM.Timeout)
	setBool("LLM_JSON_MODE", &c.LLM.JSONMode)

	setInt("ANALYSIS_MAX_CHARS", &c.Analysis.MaxChars)
	setBool("ANALYSIS_STRICT_SCHEMA", &c.Analysis.StrictSchema)
	setInt("BATCH_CONCURRENCY", &c.Batch.Concurrency)
	setString(&c.Staging.Dir, "STAGING_DIR")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	return errors.Join(errs...)
}

// Validate rejects values the server cannot start with. The LLM API key is
// not checked; analysis calls fail individually without it.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port out of range: %d", c.Server.Port))
	}
	if c.Server.MaxBodyMB <= 0 {
		errs = append(errs, fmt.Errorf("max body size must be positive: %d", c.Server.MaxBodyMB))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("llm max tokens must be positive: %d", c.LLM.MaxTokens))
	}
	if c.Analysis.MaxChars <= 0 {
		errs = append(errs, fmt.Errorf("analysis max chars must be positive: %d", c.Analysis.MaxChars))
	}
	if c.Batch.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("batch concurrency must be positive: %d", c.Batch.Concurrency))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unknown log format: %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// MaxBodyBytes converts the configured megabytes to bytes.
func (c *Config) MaxBodyBytes() int64 {
	return c.Server.MaxBodyMB * 1024 * 1024
}

// LogLevel is the configured level, lowered to debug when DEBUG is on.
func (c *Config) LogLevel() string {
	if c.Server.Debug {
		return "debug"
	}
	return c.Log.Level
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
