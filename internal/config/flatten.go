package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
)

// Flat keys join map levels with dots and address list elements by index,
// so the first scheduled job's spec is "schedule[0].spec". Validation
// messages use the same form.

var secretKeys = map[string]bool{
	"llm.api_key":        true,
	"sheets.token":       true,
	"telegram.token":     true,
	"warehouse.password": true,
	"warehouse.dsn":      true,
}

// IsSecretKey reports whether the flat key holds a credential.
func IsSecretKey(key string) bool {
	return secretKeys[key]
}

// Flatten converts a decoded config document into flat keys. Empty maps
// vanish; empty or null lists stay as leaves.
func Flatten(m map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range m {
		flattenInto(out, k, v)
	}
	return out
}

func flattenInto(out map[string]any, key string, v any) {
	switch node := v.(type) {
	case map[string]any:
		for k, child := range node {
			flattenInto(out, key+"."+k, child)
		}
	case []any:
		if len(node) == 0 {
			out[key] = node
			return
		}
		for i, child := range node {
			flattenInto(out, fmt.Sprintf("%s[%d]", key, i), child)
		}
	default:
		out[key] = v
	}
}

var indexedSegment = regexp.MustCompile(`^([^\[\]]+)\[(\d+)\]$`)

// pathStep is one level of a flat key: a map field, or a list index when
// index is not negative.
type pathStep struct {
	field string
	index int
}

func parseKey(key string) []pathStep {
	var steps []pathStep
	for _, seg := range strings.Split(key, ".") {
		if m := indexedSegment.FindStringSubmatch(seg); m != nil {
			i, _ := strconv.Atoi(m[2])
			steps = append(steps, pathStep{field: m[1], index: -1}, pathStep{index: i})
			continue
		}
		steps = append(steps, pathStep{field: seg, index: -1})
	}
	return steps
}

// indexedList collects list elements by position until every key is placed.
type indexedList map[int]any

// Unflatten rebuilds the nested document from flat keys. Missing list
// positions become null.
func Unflatten(flat map[string]any) map[string]any {
	root := map[string]any{}
	for k, v := range flat {
		place(root, parseKey(k), v)
	}
	return settle(root).(map[string]any)
}

func place(node any, steps []pathStep, v any) any {
	if len(steps) == 0 {
		return v
	}
	step := steps[0]
	if step.index < 0 {
		m, ok := node.(map[string]any)
		if !ok {
			m = map[string]any{}
		}
		m[step.field] = place(m[step.field], steps[1:], v)
		return m
	}
	l, ok := node.(indexedList)
	if !ok {
		l = indexedList{}
	}
	l[step.index] = place(l[step.index], steps[1:], v)
	return l
}

func settle(v any) any {
	switch node := v.(type) {
	case map[string]any:
		for k, child := range node {
			node[k] = settle(child)
		}
		return node
	case indexedList:
		n := 0
		for i := range node {
			n = max(n, i+1)
		}
		out := make([]any, n)
		for i, child := range node {
			out[i] = settle(child)
		}
		return out
	}
	return v
}

// MaskSecrets returns a copy of flat with credentials hidden. Tokens keep
// their last four characters. A MySQL DSN keeps everything but the password;
// a SQLite DSN is a file path and is shown as is.
func MaskSecrets(flat map[string]any) map[string]any {
	out := make(map[string]any, len(flat))
	for k, v := range flat {
		out[k] = v
		s, ok := v.(string)
		if !ok || s == "" || !secretKeys[k] {
			continue
		}
		if k == "warehouse.dsn" {
			out[k] = maskDSN(flat["warehouse.driver"], s)
			continue
		}
		out[k] = maskTail(s)
	}
	return out
}

func maskTail(s string) string {
	if len(s) <= 4 {
		return "***" + s
	}
	return "***" + s[len(s)-4:]
}

func maskDSN(driver any, dsn string) string {
	if driver != "mysql" {
		return dsn
	}
	c, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return "***"
	}
	if c.Passwd == "" {
		return dsn
	}
	c.Passwd = "***"
	return c.FormatDSN()
}
