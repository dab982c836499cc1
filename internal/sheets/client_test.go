package sheets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"google.golang.org/api/googleapi"
)

func newTestClient(t *testing.T, baseURL, spreadsheetID, token string) *Client {
	t.Helper()
	client, err := New(context.Background(), baseURL, spreadsheetID, StaticToken(token))
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestValues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sheet-token" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		if r.URL.Path != "/v4/spreadsheets/sheet-1/values/Tasks!A1:F" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"range":"Tasks!A1:F","majorDimension":"ROWS","values":[["Title","Status"],["Ship it","open"],["Count",3]]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "sheet-1", "sheet-token")
	values, err := client.Values(context.Background(), "Tasks!A1:F")
	if err != nil {
		t.Fatal(err)
	}
	if len(values) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(values))
	}
	if values[1][0] != "Ship it" {
		t.Errorf("expected 'Ship it', got %q", values[1][0])
	}
	if values[2][1] != "3" {
		t.Errorf("expected numeric cell as '3', got %q", values[2][1])
	}
}

func TestValuesAPIError(t *testing.T) {
	for _, status := range []int{http.StatusForbidden, http.StatusTooManyRequests} {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			if r.Header.Get("Authorization") != "" {
				t.Errorf("expected an unauthenticated request, got %q", r.Header.Get("Authorization"))
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"denied"}}`))
		}))

		client := newTestClient(t, server.URL, "sheet-1", "")
		_, err := client.Values(context.Background(), "Tasks!A:F")
		server.Close()

		var apiErr *googleapi.Error
		if !errors.As(err, &apiErr) || apiErr.Code != status {
			t.Errorf("expected API error with status %d, got %v", status, err)
		}
		if calls.Load() != 1 {
			t.Errorf("status %d: expected one request, got %d", status, calls.Load())
		}
	}
}

func TestValuesMissingSpreadsheet(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:0", "", "")
	if _, err := client.Values(context.Background(), "Tasks!A:F"); err == nil {
		t.Fatal("expected error without spreadsheet id")
	}
}

func TestStaticTokenEmpty(t *testing.T) {
	if StaticToken("") != nil {
		t.Error("expected nil token source for empty token")
	}
}

func TestRecords(t *testing.T) {
	values := [][]string{
		{" Title ", "STATUS", "", "Due"},
		{"Write report", "open", "ignored", "2024-05-01"},
		{"", "", ""},
		{"Call Bob"},
	}

	recs := Records(values)
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0]["title"] != "Write report" || recs[0]["status"] != "open" || recs[0]["due"] != "2024-05-01" {
		t.Errorf("unexpected first record %v", recs[0])
	}
	if _, ok := recs[0][""]; ok {
		t.Error("blank header column should be dropped")
	}
	if recs[0]["_row"] != "2" || recs[1]["_row"] != "4" {
		t.Errorf("unexpected row numbers %q, %q", recs[0]["_row"], recs[1]["_row"])
	}
	if recs[1]["status"] != "" {
		t.Errorf("expected missing trailing cell to be empty, got %q", recs[1]["status"])
	}
}

func TestRecordsHeaderOnly(t *testing.T) {
	if got := Records([][]string{{"title"}}); len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
}
