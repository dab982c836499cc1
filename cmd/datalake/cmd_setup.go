package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/user/datalake/internal/config"
)

type setupField struct {
	key    string
	label  string
	secret bool
}

var setupFields = []setupField{
	{key: "llm.base_url", label: "LLM base URL"},
	{key: "llm.api_key", label: "LLM API key", secret: true},
	{key: "llm.model", label: "LLM model name"},
	{key: "warehouse.driver", label: "Warehouse driver (sqlite or mysql)"},
	{key: "warehouse.dsn", label: "Warehouse DSN", secret: true},
	{key: "sheets.spreadsheet_id", label: "Spreadsheet id (optional)"},
	{key: "sheets.token", label: "Sheets access token (optional)", secret: true},
	{key: "telegram.token", label: "Telegram bot token (optional)", secret: true},
}

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactive setup wizard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			current, err := config.ListValues(cfg, false)
			if err != nil {
				return err
			}
			return runSetup(cmd.InOrStdin(), cmd.OutOrStdout(), current)
		},
	}
}

func runSetup(in io.Reader, out io.Writer, current map[string]any) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, "Data Lake Setup Wizard")
	fmt.Fprintln(out, "Press Enter to keep the value shown in brackets.")
	fmt.Fprintln(out)

	changed := 0
	for _, f := range setupFields {
		def := ""
		if v, ok := current[f.key]; ok && v != nil {
			def = fmt.Sprint(v)
		}
		var val string
		if f.secret {
			val = promptSecret(scanner, in, out, f.label, def)
		} else {
			val = prompt(scanner, out, f.label, def)
		}
		if val == def {
			continue
		}
		if err := config.SetValue(cfgPath, f.key, val); err != nil {
			return fmt.Errorf("set %s: %w", f.key, err)
		}
		changed++
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%d value(s) saved to %s\n", changed, cfgPath)
	return nil
}

// prompt displays a labeled prompt with a default value and reads user input.
// If the user enters nothing, the default is returned.
func prompt(scanner *bufio.Scanner, out io.Writer, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(out, "%s [%s]: ", label, defaultVal)
	} else {
		fmt.Fprintf(out, "%s: ", label)
	}
	if scanner.Scan() {
		if input := strings.TrimSpace(scanner.Text()); input != "" {
			return input
		}
	}
	return defaultVal
}

// promptSecret reads without echo when in is a terminal. The default is never
// displayed.
func promptSecret(scanner *bufio.Scanner, in io.Reader, out io.Writer, label, defaultVal string) string {
	hint := ""
	if defaultVal != "" {
		hint = " [set]"
	}
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(out, "%s%s: ", label, hint)
		if scanner.Scan() {
			if input := strings.TrimSpace(scanner.Text()); input != "" {
				return input
			}
		}
		return defaultVal
	}

	fmt.Fprintf(out, "%s%s: ", label, hint)
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return defaultVal
	}
	if input := strings.TrimSpace(string(b)); input != "" {
		return input
	}
	return defaultVal
}
