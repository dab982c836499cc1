// Package config loads data lake settings from a YAML file and DATALAKE_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/user/datalake/internal/types"
)

// EnvPrefix is the prefix of environment overrides. A double underscore
// separates nesting levels: DATALAKE_LLM__API_KEY sets llm.api_key.
const EnvPrefix = "DATALAKE_"

type Config struct {
	LogLevel  string          `koanf:"log_level" json:"log_level"`
	DataDir   string          `koanf:"data_dir" json:"data_dir"`
	LLM       LLMConfig       `koanf:"llm" json:"llm"`
	Warehouse WarehouseConfig `koanf:"warehouse" json:"warehouse"`
	Sheets    SheetsConfig    `koanf:"sheets" json:"sheets"`
	Events    EventsConfig    `koanf:"events" json:"events"`
	Search    SearchConfig    `koanf:"search" json:"search"`
	HTTP      HTTPConfig      `koanf:"http" json:"http"`
	Telegram  TelegramConfig  `koanf:"telegram" json:"telegram"`
	Telemetry TelemetryConfig `koanf:"telemetry" json:"telemetry"`
	Schedule  []JobConfig     `koanf:"schedule" json:"schedule"`
}

type LLMConfig struct {
	BaseURL         string  `koanf:"base_url" json:"base_url"`
	APIKey          string  `koanf:"api_key" json:"api_key"`
	Model           string  `koanf:"model" json:"model"`
	MaxTokens       int     `koanf:"max_tokens" json:"max_tokens"`
	Temperature     float32 `koanf:"temperature" json:"temperature"`
	MaxPromptTokens int     `koanf:"max_prompt_tokens" json:"max_prompt_tokens"`
	MaxConcurrent   int     `koanf:"max_concurrent" json:"max_concurrent"`
}

// WarehouseConfig selects the SQL store. For mysql either DSN or the
// host/port/user/password/database fields are used.
type WarehouseConfig struct {
	Driver   string `koanf:"driver" json:"driver"`
	DSN      string `koanf:"dsn" json:"dsn"`
	Host     string `koanf:"host" json:"host"`
	Port     int    `koanf:"port" json:"port"`
	User     string `koanf:"user" json:"user"`
	Password string `koanf:"password" json:"password"`
	Database string `koanf:"database" json:"database"`
	Migrate  bool   `koanf:"migrate" json:"migrate"`
}

type SheetsConfig struct {
	BaseURL       string `koanf:"base_url" json:"base_url"`
	SpreadsheetID string `koanf:"spreadsheet_id" json:"spreadsheet_id"`
	TasksRange    string `koanf:"tasks_range" json:"tasks_range"`
	ContactsRange string `koanf:"contacts_range" json:"contacts_range"`
	Token         string `koanf:"token" json:"token"`
}

// EventsConfig chooses where the action logger writes.
type EventsConfig struct {
	Sink        string `koanf:"sink" json:"sink"`
	JournalPath string `koanf:"journal_path" json:"journal_path"`
}

type SearchConfig struct {
	StrictFilters bool `koanf:"strict_filters" json:"strict_filters"`
}

type HTTPConfig struct {
	Listen string `koanf:"listen" json:"listen"`
}

type TelegramConfig struct {
	Token string `koanf:"token" json:"token"`
}

type TelemetryConfig struct {
	Enabled bool `koanf:"enabled" json:"enabled"`
}

// JobConfig is one scheduled job. Kind is query, search or context; Input is
// the question, search text or agent id.
type JobConfig struct {
	Name      string `koanf:"name" json:"name"`
	Spec      string `koanf:"spec" json:"spec"`
	Kind      string `koanf:"kind" json:"kind"`
	Input     string `koanf:"input" json:"input"`
	DeliverTo string `koanf:"deliver_to" json:"deliver_to"`
}

const (
	SinkWarehouse = "warehouse"
	SinkJournal   = "journal"
)

// DefaultPath returns the config file location under the user's home.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".datalake", "config.yaml")
}

// Load reads path (if it exists), applies environment overrides and defaults,
// and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !os.IsNotExist(err) {
				return nil, types.Wrap(types.KindConfig, "config.load", fmt.Errorf("read %s: %w", path, err))
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, types.Wrap(types.KindConfig, "config.load", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, types.Wrap(types.KindConfig, "config.load", fmt.Errorf("decode: %w", err))
	}

	// Conventional variables win over the file.
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		cfg.LLM.BaseURL = baseURL
	}
	if tgToken := os.Getenv("TELEGRAM_BOT_TOKEN"); tgToken != "" {
		cfg.Telegram.Token = tgToken
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DataDir == "" {
		c.DataDir = filepath.Join(os.Getenv("HOME"), ".datalake")
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1024
	}
	if c.LLM.MaxPromptTokens == 0 {
		c.LLM.MaxPromptTokens = 16000
	}
	if c.Warehouse.Driver == "" {
		c.Warehouse.Driver = "sqlite"
	}
	if c.Warehouse.Driver == "sqlite" && c.Warehouse.DSN == "" {
		c.Warehouse.DSN = filepath.Join(c.DataDir, "warehouse.db")
	}
	if c.Warehouse.Driver == "mysql" {
		if c.Warehouse.Host == "" {
			c.Warehouse.Host = "127.0.0.1"
		}
		if c.Warehouse.Port == 0 {
			c.Warehouse.Port = 3306
		}
		if c.Warehouse.Database == "" {
			c.Warehouse.Database = "datalake"
		}
	}
	if c.Sheets.TasksRange == "" {
		c.Sheets.TasksRange = "Tasks!A1:F"
	}
	if c.Sheets.ContactsRange == "" {
		c.Sheets.ContactsRange = "Contacts!A1:E"
	}
	if c.Events.Sink == "" {
		c.Events.Sink = SinkWarehouse
	}
	if c.Events.JournalPath == "" {
		c.Events.JournalPath = filepath.Join(c.DataDir, "journal")
	}
	if c.HTTP.Listen == "" {
		c.HTTP.Listen = "127.0.0.1:8080"
	}
}

var jobKinds = map[string]bool{"query": true, "search": true, "context": true}

func (c *Config) validate() error {
	var errs []string
	switch c.Warehouse.Driver {
	case "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("warehouse.driver %q is not supported (mysql, sqlite)", c.Warehouse.Driver))
	}
	switch c.Events.Sink {
	case SinkWarehouse, SinkJournal:
	default:
		errs = append(errs, fmt.Sprintf("events.sink %q is not supported (warehouse, journal)", c.Events.Sink))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log_level %q is not supported", c.LogLevel))
	}
	seen := make(map[string]bool)
	for i, j := range c.Schedule {
		if j.Name == "" {
			errs = append(errs, fmt.Sprintf("schedule[%d].name is required", i))
		} else if seen[j.Name] {
			errs = append(errs, fmt.Sprintf("schedule[%d].name %q is duplicated", i, j.Name))
		}
		seen[j.Name] = true
		if j.Spec == "" {
			errs = append(errs, fmt.Sprintf("schedule[%d].spec is required", i))
		}
		if !jobKinds[j.Kind] {
			errs = append(errs, fmt.Sprintf("schedule[%d].kind %q must be query, search or context", i, j.Kind))
		}
	}
	if len(errs) > 0 {
		return types.Errorf(types.KindConfig, "config.validate", "%s", strings.Join(errs, "; "))
	}
	return nil
}

// RequireLLM reports a configuration error when no generative-model
// credential is set.
func (c *Config) RequireLLM() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return types.Errorf(types.KindConfig, "config", "llm.api_key is not set (use %sLLM__API_KEY or OPENAI_API_KEY)", EnvPrefix)
	}
	return nil
}
