// Package app wires configuration into the data lake services.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/user/datalake/internal/actionlog"
	"github.com/user/datalake/internal/config"
	"github.com/user/datalake/internal/gateway"
	"github.com/user/datalake/internal/query"
	"github.com/user/datalake/internal/schema"
	"github.com/user/datalake/internal/search"
	"github.com/user/datalake/internal/sheets"
	"github.com/user/datalake/internal/snapshot"
	"github.com/user/datalake/internal/sources"
	"github.com/user/datalake/internal/state"
	"github.com/user/datalake/internal/translate"
	"github.com/user/datalake/internal/types"
	"github.com/user/datalake/internal/warehouse"
	"github.com/user/datalake/pkg/llm"
	"github.com/user/datalake/pkg/llm/openai"
)

// Options adjust how an App is built.
type Options struct {
	// NeedLLM requires a model credential and builds the query and search
	// services. Without it those services are nil.
	NeedLLM bool
	// Provider replaces the OpenAI-compatible client.
	Provider llm.Provider
	// Sheet replaces the spreadsheet client.
	Sheet types.SheetReader
}

// App holds the constructed services. Services that could not be built for
// the current configuration are nil.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Warehouse *warehouse.Client

	Query    *query.Service
	Search   *search.Service
	Snapshot *snapshot.Aggregator
	Actions  *actionlog.Logger
}

// Build connects to the stores named by cfg and constructs every service.
func Build(cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Warehouse.Driver == schema.DialectSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Warehouse.DSN), 0o755); err != nil {
			return nil, fmt.Errorf("create warehouse dir: %w", err)
		}
	}
	wh, err := warehouse.Open(warehouse.Options{
		Driver:   cfg.Warehouse.Driver,
		DSN:      cfg.Warehouse.DSN,
		Host:     cfg.Warehouse.Host,
		Port:     cfg.Warehouse.Port,
		User:     cfg.Warehouse.User,
		Password: cfg.Warehouse.Password,
		Database: cfg.Warehouse.Database,
	})
	if err != nil {
		return nil, err
	}
	// A local sqlite warehouse is always migrated; mysql only on request.
	if cfg.Warehouse.Migrate || cfg.Warehouse.Driver == schema.DialectSQLite {
		if err := wh.Migrate(); err != nil {
			wh.Close()
			return nil, fmt.Errorf("migrate warehouse: %w", err)
		}
	}

	a := &App{Config: cfg, Logger: logger, Warehouse: wh}

	if opts.NeedLLM {
		if err := a.buildTranslation(opts.Provider); err != nil {
			wh.Close()
			return nil, err
		}
	}

	sheet := opts.Sheet
	if sheet == nil && cfg.Sheets.SpreadsheetID != "" {
		client, err := sheets.New(context.Background(), cfg.Sheets.BaseURL, cfg.Sheets.SpreadsheetID, sheets.StaticToken(cfg.Sheets.Token))
		if err != nil {
			wh.Close()
			return nil, types.Wrap(types.KindConfig, "app.build", err)
		}
		sheet = client
	}
	set := sources.NewSet(wh, wh, sheet, cfg.Sheets.TasksRange, cfg.Sheets.ContactsRange)
	a.Snapshot = &snapshot.Aggregator{
		Emails:   set.Emails,
		Tasks:    set.Tasks,
		Contacts: set.Contacts,
		Analyses: set.Analyses,
		Logger:   logger,
	}

	var sink types.EventSink = wh
	if cfg.Events.Sink == config.SinkJournal {
		sink = state.NewJournal(cfg.Events.JournalPath)
	}
	a.Actions = actionlog.New(sink, logger)

	logger.Debug("services built",
		"warehouse", cfg.Warehouse.Driver,
		"event_sink", cfg.Events.Sink,
		"sheets", sheet != nil,
		"llm", opts.NeedLLM,
	)
	return a, nil
}

func (a *App) buildTranslation(provider llm.Provider) error {
	cfg := a.Config
	if provider == nil {
		if err := cfg.RequireLLM(); err != nil {
			return err
		}
		provider = openai.New(&llm.Config{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
		})
	}
	provider = gateway.New(provider, int64(cfg.LLM.MaxConcurrent), a.Logger)

	budget, err := translate.NewBudget(cfg.LLM.Model, cfg.LLM.MaxPromptTokens)
	if err != nil {
		// Without a tokenizer prompts are sent unchecked.
		a.Logger.Warn("prompt budget disabled", "error", err)
		budget = nil
	}

	dialect := a.Warehouse.Dialect()
	full, err := schema.Full(dialect)
	if err != nil {
		return err
	}
	searchable, err := schema.Searchable(dialect)
	if err != nil {
		return err
	}

	a.Query = query.New(translate.NewQueryTranslator(provider, full, budget), a.Warehouse, a.Logger)
	a.Search = search.New(translate.NewSearchTranslator(provider, searchable, budget), a.Warehouse, a.Logger,
		search.Options{StrictFilters: cfg.Search.StrictFilters})
	return nil
}

// Close releases the warehouse connection.
func (a *App) Close() error {
	return a.Warehouse.Close()
}

// QueryService returns the query service as an interface, nil when it was not
// built.
func (a *App) QueryService() types.QueryService {
	if a.Query == nil {
		return nil
	}
	return a.Query
}

// SearchService returns the search service as an interface, nil when it was
// not built.
func (a *App) SearchService() types.SearchService {
	if a.Search == nil {
		return nil
	}
	return a.Search
}
