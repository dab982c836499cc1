package sources

import (
	"context"
	"strconv"
	"strings"

	"github.com/user/datalake/internal/sheets"
	"github.com/user/datalake/internal/types"
)

// Tasks reads the task sheet.
type Tasks struct {
	Sheet types.SheetReader
	Range string
}

// Open returns up to count rows whose status is not complete.
func (t *Tasks) Open(ctx context.Context, count int) ([]types.Task, error) {
	if t.Sheet == nil {
		return nil, types.Errorf(types.KindAdapter, "sources.tasks", "no sheet reader configured")
	}
	values, err := t.Sheet.Values(ctx, t.Range)
	if err != nil {
		return nil, types.Wrap(types.KindAdapter, "sources.tasks", err)
	}

	tasks := []types.Task{}
	for _, rec := range sheets.Records(values) {
		if len(tasks) >= count {
			break
		}
		if isComplete(rec["status"]) {
			continue
		}
		row, _ := strconv.Atoi(rec["_row"])
		tasks = append(tasks, types.Task{
			Row:      row,
			Title:    first(rec, "title", "task", "name"),
			Status:   rec["status"],
			Priority: rec["priority"],
			Due:      first(rec, "due", "due date", "deadline"),
			Notes:    first(rec, "notes", "description"),
		})
	}
	return tasks, nil
}

func isComplete(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "complete", "completed", "done", "closed":
		return true
	}
	return false
}

// Contacts reads the contacts sheet.
type Contacts struct {
	Sheet types.SheetReader
	Range string
}

// All returns every contact row.
func (c *Contacts) All(ctx context.Context) ([]types.Contact, error) {
	if c.Sheet == nil {
		return nil, types.Errorf(types.KindAdapter, "sources.contacts", "no sheet reader configured")
	}
	values, err := c.Sheet.Values(ctx, c.Range)
	if err != nil {
		return nil, types.Wrap(types.KindAdapter, "sources.contacts", err)
	}

	recs := sheets.Records(values)
	contacts := make([]types.Contact, 0, len(recs))
	for _, rec := range recs {
		contacts = append(contacts, types.Contact{
			Name:    first(rec, "name", "full name"),
			Email:   first(rec, "email", "e-mail"),
			Phone:   rec["phone"],
			Company: first(rec, "company", "organization"),
			Notes:   rec["notes"],
		})
	}
	return contacts, nil
}

// first returns the first non-empty value among keys.
func first(rec map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := rec[k]; v != "" {
			return v
		}
	}
	return ""
}
