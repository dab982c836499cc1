// internal/state/event.go
package state

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/user/datalake/internal/types"
)

// Journal is a JSONL-backed append-only event log.
// Events are stored per agent in agents/<agentID>/events.jsonl.
type Journal struct {
	root  string
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewJournal creates a new file-backed Journal rooted at the given directory.
func NewJournal(root string) *Journal {
	return &Journal{
		root:  root,
		locks: make(map[string]*sync.Mutex),
	}
}

// getLock returns the per-agent mutex, creating one if it doesn't exist.
func (j *Journal) getLock(agent string) *sync.Mutex {
	j.mu.Lock()
	defer j.mu.Unlock()

	if lock, ok := j.locks[agent]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	j.locks[agent] = lock
	return lock
}

// agentDir maps an agent id to a safe directory name.
func agentDir(agentID string) string {
	if agentID == "" {
		return "_unknown"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, agentID)
}

func (j *Journal) eventsPath(agent string) string {
	return filepath.Join(j.root, "agents", agent, "events.jsonl")
}

// AppendEvent adds one event to its agent's journal.
func (j *Journal) AppendEvent(_ context.Context, event *types.Event) error {
	agent := agentDir(event.AgentID)
	lock := j.getLock(agent)
	lock.Lock()
	defer lock.Unlock()

	dir := filepath.Dir(j.eventsPath(agent))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.Wrap(types.KindWrite, "journal.append", fmt.Errorf("create agent dir: %w", err))
	}

	if len(event.Payload) == 0 {
		event.Payload = json.RawMessage("{}")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return types.Wrap(types.KindWrite, "journal.append", fmt.Errorf("marshal event: %w", err))
	}

	f, err := os.OpenFile(j.eventsPath(agent), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return types.Wrap(types.KindWrite, "journal.append", fmt.Errorf("open events file: %w", err))
	}
	defer f.Close()

	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return types.Wrap(types.KindWrite, "journal.append", fmt.Errorf("write event: %w", err))
	}
	return nil
}

// read loads every event of one agent. Caller must hold the agent lock.
func (j *Journal) read(agent string) ([]*types.Event, error) {
	f, err := os.Open(j.eventsPath(agent))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	var events []*types.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var event types.Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			return nil, fmt.Errorf("unmarshal event: %w", err)
		}
		events = append(events, &event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan events file: %w", err)
	}
	return events, nil
}

// Tail returns the last N events for the given agent in write order.
func (j *Journal) Tail(_ context.Context, agentID string, limit int) ([]*types.Event, error) {
	agent := agentDir(agentID)
	lock := j.getLock(agent)
	lock.Lock()
	defer lock.Unlock()

	events, err := j.read(agent)
	if err != nil {
		return nil, err
	}
	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events, nil
}

// Count returns the number of events for the given agent.
func (j *Journal) Count(ctx context.Context, agentID string) (int64, error) {
	events, err := j.Tail(ctx, agentID, int(^uint(0)>>1))
	if err != nil {
		return 0, err
	}
	return int64(len(events)), nil
}

// RecentEvents scans every agent journal and returns matching events newest
// first.
func (j *Journal) RecentEvents(_ context.Context, filter types.EventFilter, limit int) ([]*types.Event, error) {
	entries, err := os.ReadDir(filepath.Join(j.root, "agents"))
	if err != nil {
		if os.IsNotExist(err) {
			return []*types.Event{}, nil
		}
		return nil, fmt.Errorf("list agents: %w", err)
	}

	var matched []*types.Event
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		lock := j.getLock(entry.Name())
		lock.Lock()
		events, err := j.read(entry.Name())
		lock.Unlock()
		if err != nil {
			return nil, err
		}
		for _, e := range events {
			if filter.Source != "" && e.Source != filter.Source {
				continue
			}
			if filter.EventType != "" && e.Type != filter.EventType {
				continue
			}
			if !filter.Since.IsZero() && e.Timestamp.Before(filter.Since) {
				continue
			}
			matched = append(matched, e)
		}
	}

	slices.SortStableFunc(matched, func(a, b *types.Event) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	if matched == nil {
		matched = []*types.Event{}
	}
	return matched, nil
}
