package sources

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/user/datalake/internal/types"
)

const snippetLimit = 240

type emailPayload struct {
	From     string `json:"from"`
	Subject  string `json:"subject"`
	Snippet  string `json:"snippet"`
	Body     string `json:"body"`
	BodyHTML string `json:"body_html"`
}

func summarizeEmail(ev *types.Event) types.EmailSummary {
	s := types.EmailSummary{EventID: ev.ID, Timestamp: ev.Timestamp}

	var p emailPayload
	if len(ev.Payload) > 0 {
		// Malformed payloads still yield the id and timestamp.
		_ = json.Unmarshal(ev.Payload, &p)
	}
	s.From = strings.TrimSpace(p.From)
	s.Subject = strings.TrimSpace(p.Subject)

	switch {
	case p.Snippet != "":
		s.Snippet = p.Snippet
	case p.BodyHTML != "":
		s.Snippet = htmlText(p.BodyHTML)
	default:
		s.Snippet = p.Body
	}
	s.Snippet = truncate(collapseSpace(s.Snippet), snippetLimit)
	return s
}

// htmlText renders an HTML body as markdown so snippets stay readable.
func htmlText(html string) string {
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return ""
	}
	return md
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit]) + "..."
}
