package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bnema/coursecal/internal/ics"
	"github.com/bnema/coursecal/internal/nerdfonts"
)

var (
	exportOutput string
	exportSheet  string
	exportAlign  bool
)

var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Write the course schedule as an iCalendar (.ics) file",
	Long: `Convert a registration export into an .ics file that any calendar app can
import. No Google account is needed.

Examples:
  coursecal export View_My_Courses.xlsx -o courses.ics
  coursecal export View_My_Courses.xlsx -o -            # write to stdout`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "courses.ics", "output file, - for stdout")
	exportCmd.Flags().StringVar(&exportSheet, "sheet", "", "worksheet to read (default: first sheet)")
	exportCmd.Flags().BoolVar(&exportAlign, "align", false, "start each event on its first meeting day")
}

func runExport(cmd *cobra.Command, args []string) error {
	result, err := readSchedule(args[0], exportSheet)
	if err != nil {
		return fmt.Errorf("failed to read schedule: %w", err)
	}

	out, err := ics.Export(result.Records, ics.Options{
		CalendarName:         cfg.Calendar.Name,
		TimeZone:             cfg.Calendar.TimeZone,
		AlignFirstOccurrence: exportAlign || cfg.Sync.AlignFirstOccurrence,
	})
	if err != nil {
		return fmt.Errorf("failed to build calendar: %w", err)
	}

	if exportOutput == "-" {
		_, err := fmt.Fprint(os.Stdout, out)
		return err
	}

	if err := os.WriteFile(exportOutput, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", exportOutput, err)
	}
	fmt.Printf("%s Wrote %d events to %s\n", nerdfonts.CalendarCheck, len(result.Records), exportOutput)
	return nil
}
