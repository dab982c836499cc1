package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/datalake/internal/report"
	"github.com/user/datalake/internal/types"
)

func newQueryCmd() *cobra.Command {
	var maxRows int
	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Answer a natural-language question from the warehouse",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := resolveFormat(outputFormat, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.Query.Query(context.Background(), types.QueryRequest{
				Question: strings.Join(args, " "),
				MaxRows:  maxRows,
			})
			if err := writeResult(cmd.OutOrStdout(), format, res, report.Query(res)); err != nil {
				return err
			}
			if res.Error != "" {
				return errors.New(res.Error)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxRows, "max-rows", 0, "row limit (default 100)")
	return cmd
}

func newSearchCmd() *cobra.Command {
	var (
		maxResults int
		sources    []string
		days       int
	)
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search events by meaning",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := resolveFormat(outputFormat, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			a, err := openApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.Search.Search(context.Background(), types.SearchRequest{
				Query:         strings.Join(args, " "),
				MaxResults:    maxResults,
				Sources:       sources,
				TimeRangeDays: days,
			})
			if err := writeResult(cmd.OutOrStdout(), format, res, report.Search(res)); err != nil {
				return err
			}
			if res.Error != "" {
				return errors.New(res.Error)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxResults, "max-results", 0, "result limit (default 20)")
	cmd.Flags().StringSliceVar(&sources, "source", nil, "restrict to sources (repeatable)")
	cmd.Flags().IntVar(&days, "days", 0, "time window in days (default 30)")
	return cmd
}

func newContextCmd() *cobra.Command {
	var req types.ContextRequest
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Print a snapshot of recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := resolveFormat(outputFormat, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			snap := a.Snapshot.Build(context.Background(), req)
			if err := writeResult(cmd.OutOrStdout(), format, snap, report.Snapshot(snap)); err != nil {
				return err
			}
			if snap.Error != "" {
				return errors.New(snap.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&req.AgentID, "agent", "", "requesting agent id")
	cmd.Flags().IntVar(&req.EmailCount, "emails", 0, "recent emails to include (default 10)")
	cmd.Flags().IntVar(&req.TaskCount, "tasks", 0, "open tasks to include (default 20)")
	cmd.Flags().IntVar(&req.AnalysisCount, "analyses", 0, "recent analyses to include (default 5)")
	return cmd
}

func newLogCmd() *cobra.Command {
	var (
		agent, eventType, source, payload string
		processed                         bool
	)
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Record an agent action as an event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := resolveFormat(outputFormat, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			a, err := openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.Actions.Log(context.Background(), types.ActionRequest{
				AgentID:   agent,
				EventType: eventType,
				Source:    source,
				Payload:   []byte(payload),
				Processed: processed,
			})
			text := fmt.Sprintf("Logged event %s at %s\n", res.EventID, res.Timestamp.Format("2006-01-02 15:04:05Z07:00"))
			if !res.Success {
				text = fmt.Sprintf("Failed to log event %s: %s\n", res.EventID, res.Error)
			}
			if err := writeResult(cmd.OutOrStdout(), format, res, text); err != nil {
				return err
			}
			if !res.Success {
				return errors.New(res.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&agent, "agent", "", "agent id (required)")
	cmd.Flags().StringVar(&eventType, "type", "", "event type (required)")
	cmd.Flags().StringVar(&source, "source", "", "event source (required)")
	cmd.Flags().StringVar(&payload, "payload", "", "JSON payload (default {})")
	cmd.Flags().BoolVar(&processed, "processed", false, "mark the event processed")
	cmd.MarkFlagRequired("agent")
	cmd.MarkFlagRequired("type")
	cmd.MarkFlagRequired("source")
	return cmd
}
