// internal/types/models_test.go
package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestQueryResultOmitsEmptyError(t *testing.T) {
	data, err := json.Marshal(QueryResult{Question: "q", Rows: []Row{}})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), `"error"`) {
		t.Errorf("expected no error field, got %s", data)
	}
	if !strings.Contains(string(data), `"rows":[]`) {
		t.Errorf("expected empty rows array, got %s", data)
	}
}

func TestSearchHitNullFields(t *testing.T) {
	data, err := json.Marshal(SearchHit{RelevanceScore: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"subject":null`) {
		t.Errorf("expected null subject, got %s", data)
	}
}
