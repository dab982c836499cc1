package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/user/datalake/internal/types"
)

// ListValues returns the effective configuration as a flat map with secrets
// masked when mask is set.
func ListValues(cfg *Config, mask bool) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	var nested map[string]any
	if err := json.Unmarshal(data, &nested); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	flat := Flatten(nested)
	if mask {
		flat = MaskSecrets(flat)
	}
	return flat, nil
}

// GetValue returns one effective value by dot-separated key.
func GetValue(cfg *Config, key string) (any, error) {
	values, err := ListValues(cfg, false)
	if err != nil {
		return nil, err
	}
	v, ok := values[key]
	if !ok {
		return nil, types.Errorf(types.KindConfig, "config.get", "unknown key %q", key)
	}
	return v, nil
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetValue writes key=value into the YAML file at path, creating it if
// needed. The result must still load.
func SetValue(path, key, value string) error {
	nested := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &nested); err != nil {
			return types.Wrap(types.KindConfig, "config.set", fmt.Errorf("parse %s: %w", path, err))
		}
	case os.IsNotExist(err):
	default:
		return types.Wrap(types.KindConfig, "config.set", err)
	}

	flat := Flatten(nested)
	var parsed any
	if err := yaml.Unmarshal([]byte(value), &parsed); err != nil || parsed == nil {
		parsed = value
	}
	flat[key] = parsed

	out, err := yaml.Marshal(Unflatten(flat))
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return writeAtomic(path, out, func(tmpPath string) error {
		if _, err := Load(tmpPath); err != nil {
			return fmt.Errorf("config not valid after setting %s: %w", key, err)
		}
		return nil
	})
}

// writeAtomic writes data to a temporary file, runs check against it and
// renames it over path only if check passes.
func writeAtomic(path string, data []byte, check func(tmpPath string) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := check(tmpPath); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
