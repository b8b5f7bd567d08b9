package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bnema/coursecal/internal/calendar"
	"github.com/bnema/coursecal/internal/logger"
	"github.com/bnema/coursecal/internal/nerdfonts"
	"github.com/bnema/coursecal/internal/notifier"
	"github.com/bnema/coursecal/internal/recurrence"
)

var (
	sheetFlag        string
	dryRunFlag       bool
	notifyFlag       bool
	workersFlag      int
	abortOnErrorFlag bool
	alignFlag        bool
)

var syncCmd = &cobra.Command{
	Use:   "sync FILE",
	Short: "Create a course calendar from a registration export",
	Long: `Read a "View My Courses" export (.xlsx or .csv), create a new Google Calendar
and add one recurring event per meeting pattern of every registered section.

Each run creates a new calendar; running it twice yields two calendars.

Examples:
  coursecal sync View_My_Courses.xlsx                # Create the calendar
  coursecal sync View_My_Courses.xlsx --dry-run      # Show what would be created
  coursecal sync export.csv --workers 4 --notify     # Parallel inserts, desktop notification
  coursecal sync export.xlsx --align                 # Start events on their first meeting day`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&sheetFlag, "sheet", "", "worksheet to read (default: first sheet)")
	syncCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "print the events without contacting Google")
	syncCmd.Flags().BoolVar(&notifyFlag, "notify", false, "send a desktop notification when done")
	syncCmd.Flags().IntVar(&workersFlag, "workers", 0, "concurrent event inserts (default from config)")
	syncCmd.Flags().BoolVar(&abortOnErrorFlag, "abort-on-error", false, "stop at the first rejected event")
	syncCmd.Flags().BoolVar(&alignFlag, "align", false, "start each event on its first meeting day")
}

func runSync(cmd *cobra.Command, args []string) error {
	result, err := readSchedule(args[0], sheetFlag)
	if err != nil {
		return fmt.Errorf("failed to read schedule: %w", err)
	}
	if len(result.Skipped) > 0 {
		fmt.Printf("%s %d meeting patterns skipped (use 'coursecal preview' for details)\n",
			nerdfonts.ExclamationTriangle, len(result.Skipped))
	}

	opts := syncOptions(true)
	if workersFlag > 0 {
		opts.Workers = workersFlag
	}
	if abortOnErrorFlag {
		opts.FailurePolicy = calendar.AbortOnFailure
	}
	if alignFlag {
		opts.AlignFirstOccurrence = true
	}

	if dryRunFlag {
		fmt.Printf("%s Would create calendar %q (%s) with %d events:\n",
			nerdfonts.CalendarPlus, opts.CalendarName, opts.TimeZone, len(result.Records))
		for _, rec := range result.Records {
			fmt.Printf("  %s %s  %s-%s  %s\n", nerdfonts.Book, rec.Section, rec.StartTime, rec.EndTime, rec.Location)
			fmt.Printf("    %s %s\n", nerdfonts.Repeat, recurrence.ForRecord(rec))
		}
		return nil
	}

	syncer, err := newSyncer(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	n := notifier.New(notifyFlag || cfg.Notifications.Enabled)
	report, err := syncer.Sync(ctx, result.Records)
	if err != nil {
		if nerr := n.SyncFailed(err); nerr != nil {
			logger.Warn("failed to send notification", "error", nerr)
		}
		if report != nil && report.Created > 0 {
			fmt.Printf("%s %d events were created before the sync stopped\n", nerdfonts.InfoCircle, report.Created)
		}
		return err
	}

	fmt.Printf("%s Calendar %q created (%s)\n", nerdfonts.CalendarCheck, opts.CalendarName, report.CalendarID)
	fmt.Printf("%s %d events created\n", nerdfonts.CheckCircle, report.Created)
	for _, f := range report.Failures {
		fmt.Printf("%s %s: %s\n", nerdfonts.Ban, f.Section, f.Error)
	}
	logger.Info("sync report", "run_id", report.RunID)

	if err := n.SyncFinished(opts.CalendarName, report); err != nil {
		logger.Warn("failed to send notification", "error", err)
	}
	return nil
}
