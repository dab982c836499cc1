package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/datalake/internal/types"
)

type fakeBot struct {
	sent    []tgbotapi.MessageConfig
	sendErr error
	updates chan tgbotapi.Update
	stopped bool
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeBot) StopReceivingUpdates() { f.stopped = true }

type fakeQuery struct{ question string }

func (f *fakeQuery) Query(_ context.Context, req types.QueryRequest) types.QueryResult {
	f.question = req.Question
	return types.QueryResult{Question: req.Question, Rows: []types.Row{{"count": 4}}, TotalRows: 1}
}

type fakeContext struct{ agent string }

func (f *fakeContext) Build(_ context.Context, req types.ContextRequest) types.ContextSnapshot {
	f.agent = req.AgentID
	return types.ContextSnapshot{AgentID: req.AgentID}
}

type fakeActions struct{ reqs []types.ActionRequest }

func (f *fakeActions) Log(_ context.Context, req types.ActionRequest) types.ActionResult {
	f.reqs = append(f.reqs, req)
	return types.ActionResult{EventID: "evt", Success: true}
}

func command(text string, chatID, userID int64) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: userID},
	}
	if strings.HasPrefix(text, "/") {
		cmd, _, _ := strings.Cut(text, " ")
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return msg
}

func newTestAdapter(b *fakeBot, s Services) *Adapter {
	return newAdapter(b, s, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAskCommand(t *testing.T) {
	b := &fakeBot{}
	q := &fakeQuery{}
	actions := &fakeActions{}
	a := newTestAdapter(b, Services{Query: q, Actions: actions})

	a.handleMessage(context.Background(), command("/ask how many emails arrived today", 10, 20))

	if q.question != "how many emails arrived today" {
		t.Errorf("unexpected question %q", q.question)
	}
	if len(b.sent) != 1 || !strings.Contains(b.sent[0].Text, "1 row(s)") || b.sent[0].ChatID != 10 {
		t.Errorf("unexpected replies %+v", b.sent)
	}
	if len(actions.reqs) != 1 || actions.reqs[0].EventType != "telegram_command" || actions.reqs[0].AgentID != "telegram:20" {
		t.Errorf("unexpected action log %+v", actions.reqs)
	}
}

func TestPlainTextIsAsk(t *testing.T) {
	q := &fakeQuery{}
	a := newTestAdapter(&fakeBot{}, Services{Query: q})
	a.handleMessage(context.Background(), command("top senders this week", 1, 1))
	if q.question != "top senders this week" {
		t.Errorf("expected plain text to be asked, got %q", q.question)
	}
}

func TestContextCommandDefaultsAgentToChat(t *testing.T) {
	c := &fakeContext{}
	a := newTestAdapter(&fakeBot{}, Services{Context: c})
	a.handleMessage(context.Background(), command("/context", 99, 1))
	if c.agent != "telegram:99" {
		t.Errorf("expected chat agent, got %q", c.agent)
	}
}

func TestUnconfiguredAndUnknown(t *testing.T) {
	b := &fakeBot{}
	a := newTestAdapter(b, Services{})
	a.handleMessage(context.Background(), command("/search pricing", 1, 1))
	a.handleMessage(context.Background(), command("/frobnicate", 1, 1))
	a.handleMessage(context.Background(), command("/ask", 1, 1))

	if len(b.sent) != 3 {
		t.Fatalf("expected 3 replies, got %d", len(b.sent))
	}
	if !strings.Contains(b.sent[0].Text, "not configured") {
		t.Errorf("unexpected reply %q", b.sent[0].Text)
	}
	if !strings.HasPrefix(b.sent[1].Text, "Unknown command") {
		t.Errorf("unexpected reply %q", b.sent[1].Text)
	}
	if !strings.HasPrefix(b.sent[2].Text, "Usage: /ask") {
		t.Errorf("unexpected reply %q", b.sent[2].Text)
	}
}

func TestDeliver(t *testing.T) {
	b := &fakeBot{}
	a := newTestAdapter(b, Services{})
	if err := a.Deliver(context.Background(), "telegram:-1001", "daily report"); err != nil {
		t.Fatal(err)
	}
	if len(b.sent) != 1 || b.sent[0].ChatID != -1001 {
		t.Errorf("unexpected sends %+v", b.sent)
	}
	if err := a.Deliver(context.Background(), "telegram:abc", "x"); err == nil {
		t.Error("expected error for invalid chat id")
	}
	b.sendErr = errors.New("blocked")
	if err := a.Deliver(context.Background(), "telegram:1", "x"); err == nil {
		t.Error("expected send error")
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	b := &fakeBot{updates: make(chan tgbotapi.Update, 1)}
	q := &fakeQuery{}
	a := newTestAdapter(b, Services{Query: q})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Start(ctx)
		close(done)
	}()

	b.updates <- tgbotapi.Update{Message: command("/ask hi", 1, 1)}
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("adapter did not stop")
	}
	if !b.stopped {
		t.Error("expected updates to be stopped")
	}
	if q.question != "hi" {
		t.Errorf("expected update to be handled, got %q", q.question)
	}
}

func TestSplitMessage(t *testing.T) {
	short := "Hello world"
	parts := splitMessage(short)
	if len(parts) != 1 || parts[0] != short {
		t.Fatalf("expected single part %q, got %v", short, parts)
	}
}

func TestSplitMessageLong(t *testing.T) {
	long := strings.Repeat("a", 5000)
	parts := splitMessage(long)
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if len(parts[0]) != maxTelegramMessage {
		t.Errorf("expected first part length %d, got %d", maxTelegramMessage, len(parts[0]))
	}
}

func TestSplitMessagePrefersNewlines(t *testing.T) {
	line := strings.Repeat("b", 99) + "\n"
	text := strings.Repeat(line, 50)
	parts := splitMessage(text)
	for _, p := range parts[:len(parts)-1] {
		if !strings.HasSuffix(p, "\n") {
			t.Errorf("expected part to end on a line boundary")
		}
	}
	if strings.Join(parts, "") != text {
		t.Error("parts do not reassemble the original text")
	}
}
