package notifier

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/bnema/coursecal/internal/calendar"
	"github.com/bnema/coursecal/internal/nerdfonts"
)

const maxListedFailures = 5

// Runner executes a command and returns its combined output.
type Runner func(name string, args ...string) ([]byte, error)

func execRunner(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

type Notifier struct {
	enabled bool
	run     Runner
}

func New(enabled bool) *Notifier {
	return &Notifier{
		enabled: enabled,
		run:     execRunner,
	}
}

// WithRunner replaces the command runner, e.g. in tests.
func (n *Notifier) WithRunner(run Runner) *Notifier {
	n.run = run
	return n
}

// SyncFinished announces the outcome of a completed sync.
func (n *Notifier) SyncFinished(calendarName string, report *calendar.Report) error {
	if !n.enabled || report == nil {
		return nil
	}

	if len(report.Failures) == 0 {
		title := fmt.Sprintf("%s %s is ready", nerdfonts.CalendarCheck, calendarName)
		message := fmt.Sprintf("%s %d courses added", nerdfonts.Book, report.Created)
		return n.sendNotifyNotification(title, message, "low")
	}

	title := fmt.Sprintf("%s %s: %d of %d courses added", nerdfonts.ExclamationTriangle, calendarName,
		report.Created, report.Created+len(report.Failures))
	return n.sendNotifyNotification(title, n.formatFailures(report.Failures), "normal")
}

// SyncFailed announces a sync that stopped before finishing.
func (n *Notifier) SyncFailed(err error) error {
	if !n.enabled || err == nil {
		return nil
	}

	title := fmt.Sprintf("%s Course calendar sync failed", nerdfonts.CalendarTimes)
	message := fmt.Sprintf("%s %v", nerdfonts.ExclamationCircle, err)
	return n.sendNotifyNotification(title, message, "critical")
}

func (n *Notifier) formatFailures(failures []calendar.EventFailure) string {
	var lines []string

	count := len(failures)
	if count > maxListedFailures {
		count = maxListedFailures
	}

	for _, f := range failures[:count] {
		lines = append(lines, fmt.Sprintf("%s %s", nerdfonts.Ban, f.Section))
	}

	if len(failures) > maxListedFailures {
		lines = append(lines, fmt.Sprintf("... and %d more", len(failures)-maxListedFailures))
	}

	return strings.Join(lines, "\n")
}

func (n *Notifier) sendNotifyNotification(title, message, urgency string) error {
	args := []string{
		"--app-name=coursecal",
		"--urgency=" + urgency,
		title,
		message,
	}

	output, err := n.run("notify-send", args...)
	if err != nil {
		return fmt.Errorf("notify-send failed: %w, output: %s", err, string(output))
	}
	return nil
}

func (n *Notifier) IsEnabled() bool {
	return n.enabled
}

func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled = enabled
}

func (n *Notifier) TestNotification() error {
	if !n.enabled {
		return fmt.Errorf("notifications are disabled")
	}

	title := fmt.Sprintf("%s Test Notification", nerdfonts.Calendar)
	message := fmt.Sprintf("%s This is a test notification from coursecal", nerdfonts.InfoCircle)

	return n.sendNotifyNotification(title, message, "low")
}
