package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/datalake/internal/scheduler"
)

type scheduleEntry struct {
	Name      string `json:"name"`
	Spec      string `json:"spec"`
	Kind      string `json:"kind"`
	Input     string `json:"input"`
	DeliverTo string `json:"deliver_to,omitempty"`
	NextRun   string `json:"next_run,omitempty"`
	Error     string `json:"error,omitempty"`
}

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect scheduled jobs",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured jobs and their next run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := resolveFormat(outputFormat, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			now := time.Now()
			entries := make([]scheduleEntry, 0, len(cfg.Schedule))
			for _, job := range cfg.Schedule {
				e := scheduleEntry{
					Name:      job.Name,
					Spec:      job.Spec,
					Kind:      job.Kind,
					Input:     job.Input,
					DeliverTo: job.DeliverTo,
				}
				if next, err := scheduler.NextRun(job.Spec, now); err != nil {
					e.Error = err.Error()
				} else {
					e.NextRun = next.Format(time.RFC3339)
				}
				entries = append(entries, e)
			}
			return writeResult(cmd.OutOrStdout(), format, entries, scheduleText(entries))
		},
	})
	return cmd
}

func scheduleText(entries []scheduleEntry) string {
	if len(entries) == 0 {
		return "No scheduled jobs.\n"
	}
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSPEC\tKIND\tNEXT RUN\tDELIVER TO")
	for _, e := range entries {
		next := e.NextRun
		if e.Error != "" {
			next = "invalid: " + e.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Name, e.Spec, e.Kind, next, orDash(e.DeliverTo))
	}
	tw.Flush()
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
