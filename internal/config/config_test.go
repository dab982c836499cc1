package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/user/datalake/internal/types"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, EnvPrefix) {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_BASE_URL", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("HOME", t.TempDir())
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "info" || cfg.Warehouse.Driver != "sqlite" || cfg.Events.Sink != SinkWarehouse {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if !strings.HasSuffix(cfg.Warehouse.DSN, "warehouse.db") {
		t.Errorf("expected sqlite DSN under data dir, got %q", cfg.Warehouse.DSN)
	}
	if cfg.HTTP.Listen != "127.0.0.1:8080" || cfg.Sheets.TasksRange != "Tasks!A1:F" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.LLM.MaxConcurrent != 0 {
		t.Errorf("expected no completion limit by default, got %d", cfg.LLM.MaxConcurrent)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
log_level: debug
llm:
  model: gpt-4o
  api_key: sk-file
warehouse:
  driver: mysql
  host: db.internal
  user: lake
sheets:
  spreadsheet_id: sheet-1
search:
  strict_filters: true
schedule:
  - name: morning
    spec: "0 8 * * *"
    kind: context
    input: agent-1
    deliver_to: "telegram:42"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" || cfg.LLM.Model != "gpt-4o" || cfg.LLM.APIKey != "sk-file" {
		t.Errorf("file values not loaded: %+v", cfg.LLM)
	}
	if cfg.Warehouse.Host != "db.internal" || cfg.Warehouse.Port != 3306 || cfg.Warehouse.Database != "datalake" {
		t.Errorf("unexpected mysql settings %+v", cfg.Warehouse)
	}
	if !cfg.Search.StrictFilters {
		t.Error("expected strict filters")
	}
	if len(cfg.Schedule) != 1 || cfg.Schedule[0].DeliverTo != "telegram:42" {
		t.Errorf("unexpected schedule %+v", cfg.Schedule)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "llm:\n  model: from-file\n  api_key: sk-file\n")
	t.Setenv("DATALAKE_LLM__MODEL", "from-env")
	t.Setenv("DATALAKE_SEARCH__STRICT_FILTERS", "true")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.Model != "from-env" {
		t.Errorf("expected env model, got %q", cfg.LLM.Model)
	}
	if cfg.LLM.APIKey != "sk-env" {
		t.Errorf("expected OPENAI_API_KEY to win, got %q", cfg.LLM.APIKey)
	}
	if !cfg.Search.StrictFilters {
		t.Error("expected strict filters from env")
	}
}

func TestLoadValidation(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
warehouse:
  driver: postgres
events:
  sink: kafka
schedule:
  - name: a
    kind: report
`)
	_, err := Load(path)
	if types.KindOf(err) != types.KindConfig {
		t.Fatalf("expected config error, got %v", err)
	}
	for _, want := range []string{"warehouse.driver", "events.sink", "schedule[0].spec", "schedule[0].kind"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestLoadBadYAML(t *testing.T) {
	clearEnv(t)
	if _, err := Load(writeFile(t, "llm: [unclosed")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRequireLLM(t *testing.T) {
	cfg := &Config{}
	if err := cfg.RequireLLM(); types.KindOf(err) != types.KindConfig {
		t.Errorf("expected config error, got %v", err)
	}
	cfg.LLM.APIKey = "sk-x"
	if err := cfg.RequireLLM(); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}

func TestListAndGetValues(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeFile(t, "llm:\n  api_key: sk-secret9999\n"))
	if err != nil {
		t.Fatal(err)
	}

	masked, err := ListValues(cfg, true)
	if err != nil {
		t.Fatal(err)
	}
	if masked["llm.api_key"] != "***9999" {
		t.Errorf("expected masked key, got %v", masked["llm.api_key"])
	}
	if masked["warehouse.driver"] != "sqlite" {
		t.Errorf("expected warehouse.driver, got %v", masked["warehouse.driver"])
	}

	v, err := GetValue(cfg, "llm.api_key")
	if err != nil {
		t.Fatal(err)
	}
	if v != "sk-secret9999" {
		t.Errorf("expected raw value from GetValue, got %v", v)
	}
	if _, err := GetValue(cfg, "no.such.key"); err == nil {
		t.Error("expected error for unknown key")
	}

	keys := SortedKeys(masked)
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Fatalf("keys not sorted: %v", keys)
		}
	}
}

func TestSetValue(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := SetValue(path, "warehouse.driver", "mysql"); err != nil {
		t.Fatal(err)
	}
	if err := SetValue(path, "search.strict_filters", "true"); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Warehouse.Driver != "mysql" || !cfg.Search.StrictFilters {
		t.Errorf("values not persisted: %+v %+v", cfg.Warehouse, cfg.Search)
	}
}

func TestSetValueRejectsInvalid(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := SetValue(path, "events.sink", "kafka"); err == nil {
		t.Error("expected validation error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("invalid config must not be written")
	}
}

func TestScheduleKeys(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
schedule:
  - name: morning
    spec: "0 8 * * *"
    kind: context
    input: agent-1
`)
	if err := SetValue(path, "schedule[0].spec", "0 9 * * 1-5"); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Schedule) != 1 || cfg.Schedule[0].Spec != "0 9 * * 1-5" || cfg.Schedule[0].Input != "agent-1" {
		t.Fatalf("unexpected schedule %+v", cfg.Schedule)
	}

	v, err := GetValue(cfg, "schedule[0].name")
	if err != nil {
		t.Fatal(err)
	}
	if v != "morning" {
		t.Errorf("expected morning, got %v", v)
	}

	if err := SetValue(path, "schedule[1].name", "evening"); err == nil {
		t.Error("a job without spec and kind must not be written")
	}
}
