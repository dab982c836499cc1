package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/datalake/internal/app"
	"github.com/user/datalake/internal/delivery"
	"github.com/user/datalake/internal/scheduler"
	"github.com/user/datalake/internal/server"
	"github.com/user/datalake/internal/telegram"
	"github.com/user/datalake/internal/telemetry"
)

const pidFileName = "datalake.pid"

func newServeCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the data lake daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides http.listen)")
	return cmd
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, pidFileName)
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

func runServe(listen string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogging(cfg)
	if listen != "" {
		cfg.HTTP.Listen = listen
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	shutdownTracing, err := telemetry.Init("datalake", cfg.Telemetry.Enabled, os.Stderr, logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	// Query and search need a model; the daemon still serves context and
	// actions without one.
	needLLM := cfg.LLM.APIKey != ""
	if !needLLM {
		logger.Warn("no LLM API key configured, query and search disabled")
	}
	a, err := app.Build(cfg, logger, app.Options{NeedLLM: needLLM})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("datalake started",
		"data_dir", cfg.DataDir,
		"log_level", cfg.LogLevel,
		"warehouse", cfg.Warehouse.Driver,
		"event_sink", cfg.Events.Sink,
		"llm_model", cfg.LLM.Model,
		"pid_file", pidPath,
	)

	deliveryReg := delivery.NewRegistry()
	deliveryReg.Register("stdout", delivery.WriterHandler(os.Stdout))

	if cfg.Telegram.Token != "" {
		adapter, err := telegram.New(cfg.Telegram.Token, telegram.Services{
			Query:   a.QueryService(),
			Search:  a.SearchService(),
			Context: a.Snapshot,
			Actions: a.Actions,
		}, logger)
		if err != nil {
			return fmt.Errorf("create telegram adapter: %w", err)
		}
		go adapter.Start(ctx)
		deliveryReg.Register(telegram.TargetPrefix, adapter.Deliver)
		logger.Info("telegram adapter started")
	} else {
		logger.Warn("telegram adapter disabled (no token)")
	}

	runner := &scheduler.JobRunner{
		Query:    a.QueryService(),
		Search:   a.SearchService(),
		Context:  a.Snapshot,
		Actions:  a.Actions,
		Delivery: deliveryReg,
		Logger:   logger,
	}
	sched := scheduler.New(ctx, cfg.Schedule, runner, logger)
	n := sched.Start()
	defer sched.Stop()
	logger.Info("scheduler started", "jobs", n)

	srv := server.New(server.Services{
		Query:   a.QueryService(),
		Search:  a.SearchService(),
		Context: a.Snapshot,
		Actions: a.Actions,
		Jobs:    scheduler.NewCatalog(cfg.Schedule, runner),
	}, logger)
	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start(ctx, cfg.HTTP.Listen)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		select {
		case err := <-srvErr:
			return err
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				logger.Info("received SIGHUP, restarting")
				reexec(cfg.DataDir, pidPath, logger)
				continue
			}
			logger.Info("shutting down", "signal", sig.String())
			return nil
		}
	}
}

// reexec replaces the process with a fresh copy of itself. It only returns
// when the exec fails.
func reexec(dataDir, pidPath string, logger *slog.Logger) {
	execPath, err := os.Executable()
	if err != nil {
		logger.Error("failed to get executable path", "error", err)
		return
	}
	os.Remove(pidPath)
	if err := syscall.Exec(execPath, os.Args, os.Environ()); err != nil {
		logger.Error("failed to re-exec", "error", err)
		if _, writeErr := writePIDFile(dataDir); writeErr != nil {
			logger.Error("failed to re-write PID file", "error", writeErr)
		}
	}
}
