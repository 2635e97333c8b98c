package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ukydev/fleet-maintenance/internal/reminder"
	"github.com/ukydev/fleet-maintenance/internal/triage"
)

func remindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send today's maintenance reminders once",
		Long: `Run the reminder job a single time and exit. Intended for a system
scheduler when the HTTP cron endpoint is not used.

Usage:
  fleetd remind                    # reminders due today
  fleetd remind --date 2025-03-10  # reminders as if it were that day`,
		RunE: runRemind,
	}
	cmd.Flags().String("date", "", "Day to evaluate (YYYY-MM-DD), defaults to today")
	return cmd
}

func runRemind(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetString("date")
	today, err := reminderDay(raw, time.Now())
	if err != nil {
		return err
	}

	a, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.job.Run(cmd.Context(), today)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"date":    today.Format(time.DateOnly),
		"total":   result.Total,
		"sent":    result.Sent,
		"skipped": result.Skipped,
		"failed":  result.Failed,
	}).Info("Reminder run finished")
	printResult(cmd.OutOrStdout(), today, result)
	return nil
}

func printResult(w io.Writer, today time.Time, result reminder.Result) {
	fmt.Fprintf(w, "Reminders for %s: %d due\n", today.Format(time.DateOnly), result.Total)
	fmt.Fprintf(w, "  %s %d\n", color.New(color.FgGreen).Sprint("sent   "), result.Sent)
	fmt.Fprintf(w, "  %s %d\n", color.New(color.FgYellow).Sprint("skipped"), result.Skipped)
	failed := color.New(color.FgGreen)
	if result.Failed > 0 {
		failed = color.New(color.FgRed)
	}
	fmt.Fprintf(w, "  %s %d\n", failed.Sprint("failed "), result.Failed)
}

func reminderDay(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return triage.Today(now), nil
	}
	day, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q, want YYYY-MM-DD", raw)
	}
	return day, nil
}
