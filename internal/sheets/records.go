package sheets

import (
	"strconv"
	"strings"
)

// Records maps every data row to a header-keyed record. The first row is the
// header; header names are lower-cased and trimmed. Blank rows are skipped and
// each record carries its 1-based sheet row number under "_row".
func Records(values [][]string) []map[string]string {
	if len(values) < 2 {
		return []map[string]string{}
	}
	header := make([]string, len(values[0]))
	for i, h := range values[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	records := make([]map[string]string, 0, len(values)-1)
	for i, row := range values[1:] {
		if isBlank(row) {
			continue
		}
		rec := make(map[string]string, len(header)+1)
		for j, name := range header {
			if name == "" {
				continue
			}
			if j < len(row) {
				rec[name] = strings.TrimSpace(row[j])
			} else {
				rec[name] = ""
			}
		}
		rec["_row"] = strconv.Itoa(i + 2)
		records = append(records, rec)
	}
	return records
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

