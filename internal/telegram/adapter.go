// Package telegram exposes the data lake operations as bot commands.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/datalake/internal/report"
	"github.com/user/datalake/internal/types"
)

const maxTelegramMessage = 4096

// TargetPrefix is the delivery prefix handled by Deliver.
const TargetPrefix = "telegram:"

// bot is the part of tgbotapi.BotAPI the adapter uses.
type bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Services are the operations reachable from chat. Nil services reply that
// the command is unavailable.
type Services struct {
	Query   types.QueryService
	Search  types.SearchService
	Context types.ContextService
	Actions types.ActionService
}

// Adapter bridges Telegram to the data lake services.
type Adapter struct {
	bot      bot
	services Services
	logger   *slog.Logger
}

// New creates a Telegram adapter.
func New(token string, services Services, logger *slog.Logger) (*Adapter, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return newAdapter(api, services, logger), nil
}

func newAdapter(b bot, services Services, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{bot: b, services: services, logger: logger}
}

// Start long-polls for updates until ctx is cancelled.
func (a *Adapter) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			a.handleMessage(ctx, update.Message)
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return
		}
	}
}

const helpText = `Commands:
/ask <question> - answer a question from the warehouse
/search <text> - ranked search over emails and analyses
/context - current emails, tasks, contacts and analyses
Plain messages are treated as /ask.`

func (a *Adapter) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	command, args := "ask", strings.TrimSpace(msg.Text)
	if msg.IsCommand() {
		command, args = msg.Command(), strings.TrimSpace(msg.CommandArguments())
	}

	reply := a.dispatch(ctx, chatID, command, args)
	a.sendResponse(chatID, reply)
	a.record(ctx, msg, command, args)
}

func (a *Adapter) dispatch(ctx context.Context, chatID int64, command, args string) string {
	switch command {
	case "start", "help":
		return "Hello! I answer questions about your data lake.\n\n" + helpText

	case "ask":
		if args == "" {
			return "Usage: /ask <question>"
		}
		if a.services.Query == nil {
			return "Queries are not configured."
		}
		return report.Query(a.services.Query.Query(ctx, types.QueryRequest{Question: args}))

	case "search":
		if args == "" {
			return "Usage: /search <text>"
		}
		if a.services.Search == nil {
			return "Search is not configured."
		}
		return report.Search(a.services.Search.Search(ctx, types.SearchRequest{Query: args}))

	case "context":
		if a.services.Context == nil {
			return "Context snapshots are not configured."
		}
		agent := args
		if agent == "" {
			agent = TargetPrefix + strconv.FormatInt(chatID, 10)
		}
		return report.Snapshot(a.services.Context.Build(ctx, types.ContextRequest{AgentID: agent}))

	default:
		return "Unknown command.\n\n" + helpText
	}
}

// record appends one action event per handled message.
func (a *Adapter) record(ctx context.Context, msg *tgbotapi.Message, command, args string) {
	if a.services.Actions == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{
		"chat_id": msg.Chat.ID,
		"command": command,
		"text":    args,
	})
	agent := ""
	if msg.From != nil {
		agent = TargetPrefix + strconv.FormatInt(msg.From.ID, 10)
	}
	res := a.services.Actions.Log(ctx, types.ActionRequest{
		AgentID:   agent,
		EventType: "telegram_command",
		Source:    "telegram",
		Payload:   payload,
	})
	if !res.Success {
		a.logger.Warn("telegram action not recorded", "event_id", res.EventID, "error", res.Error)
	}
}

// Deliver sends message to the chat named by a "telegram:<chat id>" target.
func (a *Adapter) Deliver(_ context.Context, target, message string) error {
	chatID, err := strconv.ParseInt(strings.TrimPrefix(target, TargetPrefix), 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid target %q", target)
	}
	for _, part := range splitMessage(message) {
		if _, err := a.bot.Send(tgbotapi.NewMessage(chatID, part)); err != nil {
			return fmt.Errorf("telegram: send: %w", err)
		}
	}
	return nil
}

func (a *Adapter) sendResponse(chatID int64, text string) {
	for _, part := range splitMessage(text) {
		msg := tgbotapi.NewMessage(chatID, part)
		if _, err := a.bot.Send(msg); err != nil {
			a.logger.Error("send message failed", "chat_id", chatID, "error", err)
		}
	}
}

// splitMessage cuts text into chunks under Telegram's limit, preferring
// line boundaries.
func splitMessage(text string) []string {
	if len(text) <= maxTelegramMessage {
		return []string{text}
	}
	var parts []string
	for len(text) > 0 {
		end := maxTelegramMessage
		if end >= len(text) {
			parts = append(parts, text)
			break
		}
		if nl := strings.LastIndexByte(text[:end], '\n'); nl > 0 {
			end = nl + 1
		}
		parts = append(parts, text[:end])
		text = text[end:]
	}
	return parts
}
