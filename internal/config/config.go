// Package config loads service configuration from defaults, an optional TOML
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override. Nested keys are separated by
// a double underscore: RESUMEHUB_COMPILE__MAX_CONCURRENT=2.
const EnvPrefix = "RESUMEHUB_"

// Config represents the application configuration
type Config struct {
	Server struct {
		Port        int      `koanf:"port"`
		CORSOrigins []string `koanf:"cors_origins"`
		// DocumentTTL is how long an unused document stays in memory
		DocumentTTL time.Duration `koanf:"document_ttl"`
	} `koanf:"server"`

	LLM struct {
		APIKey string `koanf:"api_key"`
		Models struct {
			Lite     string `koanf:"lite"`
			Standard string `koanf:"standard"`
			Advanced string `koanf:"advanced"`
		} `koanf:"models"`
		Temperature float64 `koanf:"temperature"`
	} `koanf:"llm"`

	Render struct {
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"render"`

	Polish struct {
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"polish"`

	Template struct {
		Path string `koanf:"path"`
	} `koanf:"template"`

	Compile struct {
		Command       string        `koanf:"command"`
		Passes        int           `koanf:"passes"`
		Timeout       time.Duration `koanf:"timeout"`
		MaxConcurrent int64         `koanf:"max_concurrent"`
	} `koanf:"compile"`

	Database struct {
		URL string `koanf:"url"`
	} `koanf:"database"`

	Storage struct {
		Bucket    string `koanf:"bucket"`
		Prefix    string `koanf:"prefix"`
		Region    string `koanf:"region"`
		Endpoint  string `koanf:"endpoint"`
		AccessKey string `koanf:"access_key"`
		SecretKey string `koanf:"secret_key"`
	} `koanf:"storage"`

	RateLimit struct {
		RPS   float64 `koanf:"rps"`
		Burst int     `koanf:"burst"`
	} `koanf:"ratelimit"`

	Log struct {
		Level  string `koanf:"level"`
		Pretty bool   `koanf:"pretty"`
	} `koanf:"log"`

	RequiredPackages []string `koanf:"required_packages"`
}

// Defaults returns the built-in configuration values
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.port":            8080,
		"server.cors_origins":    []string{"http://localhost:3000"},
		"server.document_ttl":    "1h",
		"llm.models.lite":        "gemini-2.5-flash-lite",
		"llm.models.standard":    "gemini-2.5-flash",
		"llm.models.advanced":    "gemini-2.5-pro",
		"llm.temperature":        0.1,
		"render.timeout":         "90s",
		"polish.timeout":         "45s",
		"compile.command":        "pdflatex",
		"compile.passes":         2,
		"compile.timeout":        "60s",
		"compile.max_concurrent": 4,
		"storage.region":         "auto",
		"ratelimit.rps":          5.0,
		"ratelimit.burst":        10,
		"log.level":              "info",
		"log.pretty":             false,
		"required_packages":      []string{"url", "hyperref"},
	}
}

// Load builds the configuration. configPath may be empty, in which case the
// default locations are tried and skipped when absent.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config %s: %w", configPath, err)
		}
	} else {
		for _, path := range []string{"./resumehub.toml", "$HOME/.resumehub.toml"} {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config %s: %w", path, err)
			}
			break
		}
	}

	// Unprefixed variables shared with other tooling
	shared := map[string]interface{}{}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		shared["llm.api_key"] = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		shared["database.url"] = v
	}
	if len(shared) > 0 {
		if err := k.Load(confmap.Provider(shared, "."), nil); err != nil {
			return nil, fmt.Errorf("error loading environment: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	return &cfg, nil
}

// envKey maps RESUMEHUB_COMPILE__MAX_CONCURRENT to compile.max_concurrent
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate checks that the configuration has usable values
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.DocumentTTL <= 0 {
		errs = append(errs, errors.New("server.document_ttl must be positive"))
	}
	if c.Render.Timeout <= 0 {
		errs = append(errs, errors.New("render.timeout must be positive"))
	}
	if c.Compile.Passes < 1 {
		errs = append(errs, errors.New("compile.passes must be at least 1"))
	}
	if c.Compile.Timeout <= 0 {
		errs = append(errs, errors.New("compile.timeout must be positive"))
	}
	if c.Compile.MaxConcurrent < 1 {
		errs = append(errs, errors.New("compile.max_concurrent must be at least 1"))
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("ratelimit values must be non-negative"))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, errors.New("llm.temperature must be between 0 and 2"))
	}
	if c.Template.Path != "" {
		if _, err := os.Stat(c.Template.Path); os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("template file not found: %s", c.Template.Path))
		}
	}
	if (c.Storage.AccessKey == "") != (c.Storage.SecretKey == "") {
		errs = append(errs, errors.New("storage.access_key and storage.secret_key must be set together"))
	}

	return errors.Join(errs...)
}
