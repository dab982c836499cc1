package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// resolveFormat picks the output format: the flag when set, otherwise text
// for a terminal and json for pipes.
func resolveFormat(flag string, w io.Writer) (string, error) {
	switch flag {
	case "text", "json", "yaml":
		return flag, nil
	case "":
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return "text", nil
		}
		return "json", nil
	default:
		return "", fmt.Errorf("unknown output format %q (text, json, yaml)", flag)
	}
}

// writeResult prints v in the requested format. text is used for the text
// format.
func writeResult(w io.Writer, format string, v any, text string) error {
	switch format {
	case "text":
		_, err := io.WriteString(w, text)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		// Round-trip through JSON so YAML keys match the JSON field names.
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
