package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bnema/coursecal/internal/nerdfonts"
	"github.com/bnema/coursecal/internal/recurrence"
	"github.com/bnema/coursecal/internal/schedule"
)

var (
	previewFormat      string
	previewOccurrences bool
	previewSheet       string
)

var previewCmd = &cobra.Command{
	Use:   "preview FILE",
	Short: "Show the courses extracted from a registration export",
	Long: `Parse a registration export and print the course records and skipped
meeting patterns without contacting Google.

Examples:
  coursecal preview View_My_Courses.xlsx
  coursecal preview View_My_Courses.xlsx --format yaml
  coursecal preview View_My_Courses.xlsx --occurrences   # list every meeting date`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringVar(&previewFormat, "format", "table", "output format (table/json/yaml)")
	previewCmd.Flags().BoolVar(&previewOccurrences, "occurrences", false, "expand each rule into meeting dates")
	previewCmd.Flags().StringVar(&previewSheet, "sheet", "", "worksheet to read (default: first sheet)")
}

type previewCourse struct {
	schedule.Record `yaml:",inline"`
	Rule            string   `json:"rule" yaml:"rule"`
	Occurrences     []string `json:"occurrences,omitempty" yaml:"occurrences,omitempty"`
}

type previewOutput struct {
	Courses []previewCourse `json:"courses" yaml:"courses"`
	Skipped []schedule.Skip `json:"skipped" yaml:"skipped"`
}

func runPreview(cmd *cobra.Command, args []string) error {
	result, err := readSchedule(args[0], previewSheet)
	if err != nil {
		return fmt.Errorf("failed to read schedule: %w", err)
	}

	out, err := buildPreview(result, previewOccurrences, cfg.Calendar.TimeZone)
	if err != nil {
		return err
	}

	return writePreview(os.Stdout, out, previewFormat)
}

func buildPreview(result schedule.Result, withOccurrences bool, timeZone string) (previewOutput, error) {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return previewOutput{}, fmt.Errorf("invalid time zone %q: %w", timeZone, err)
	}

	out := previewOutput{Courses: make([]previewCourse, 0, len(result.Records)), Skipped: result.Skipped}
	for _, rec := range result.Records {
		course := previewCourse{Record: rec, Rule: recurrence.ForRecord(rec)}
		if withOccurrences {
			times, err := recurrence.Occurrences(rec, loc)
			if err != nil {
				return previewOutput{}, err
			}
			for _, t := range times {
				course.Occurrences = append(course.Occurrences, t.Format("Mon 2006-01-02 15:04"))
			}
		}
		out.Courses = append(out.Courses, course)
	}
	return out, nil
}

func writePreview(w io.Writer, out previewOutput, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(out)
	case "table":
		return writePreviewTable(w, out)
	default:
		return fmt.Errorf("unknown format: %s (supported: table, json, yaml)", format)
	}
}

func writePreviewTable(w io.Writer, out previewOutput) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SECTION\tDAYS\tTIME\tDATES\tLOCATION")
	for _, c := range out.Courses {
		days := strings.Join(c.Days, ",")
		if c.AlternateWeeks {
			days += " (alt)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s-%s\t%s..%s\t%s\n",
			c.Section, days, c.StartTime, c.EndTime, c.StartDate, c.EndDate, c.Location)
		for _, o := range c.Occurrences {
			fmt.Fprintf(tw, "\t%s %s\t\t\t\n", nerdfonts.Clock, o)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s %d courses\n", nerdfonts.Book, len(out.Courses))
	if len(out.Skipped) > 0 {
		fmt.Fprintf(w, "%s %d meeting patterns skipped:\n", nerdfonts.ExclamationTriangle, len(out.Skipped))
		for _, s := range out.Skipped {
			fmt.Fprintf(w, "  row %d %s: %s (%q)\n", s.Row, s.Section, s.Reason, s.Pattern)
		}
	}
	return nil
}
