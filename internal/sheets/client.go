// Package sheets reads cell ranges from a spreadsheet-style document store
// through the Google Sheets v4 API client.
package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/user/datalake/internal/types"
)

const (
	DefaultBaseURL = "https://sheets.googleapis.com"

	readTimeout = 15 * time.Second
)

// Client reads ranges from one spreadsheet.
type Client struct {
	spreadsheetID string
	values        *sheetsapi.SpreadsheetsValuesService
}

var _ types.SheetReader = (*Client)(nil)

// New creates a client whose requests are authorized by ts. A nil ts sends
// unauthenticated requests. baseURL overrides the API endpoint.
func New(ctx context.Context, baseURL, spreadsheetID string, ts oauth2.TokenSource) (*Client, error) {
	opts := []option.ClientOption{option.WithoutAuthentication()}
	if ts != nil {
		opts = []option.ClientOption{option.WithTokenSource(ts)}
	}
	if baseURL != "" && strings.TrimRight(baseURL, "/") != DefaultBaseURL {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(baseURL, "/")+"/"))
	}
	srv, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w", err)
	}
	return &Client{spreadsheetID: spreadsheetID, values: srv.Spreadsheets.Values}, nil
}

// StaticToken returns a token source for a fixed bearer token.
func StaticToken(token string) oauth2.TokenSource {
	if token == "" {
		return nil
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}

// Values returns the cells of rangeA1 (e.g. "Tasks!A1:F") as rows of strings.
// Trailing empty cells are omitted by the API, so rows may be ragged.
func (c *Client) Values(ctx context.Context, rangeA1 string) ([][]string, error) {
	if c.spreadsheetID == "" {
		return nil, fmt.Errorf("sheets: spreadsheet id is not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	vr, err := c.values.Get(c.spreadsheetID, rangeA1).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets: read %s: %w", rangeA1, err)
	}

	out := make([][]string, len(vr.Values))
	for i, row := range vr.Values {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = cellString(cell)
		}
		out[i] = cells
	}
	return out, nil
}

func cellString(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	default:
		return fmt.Sprint(c)
	}
}
