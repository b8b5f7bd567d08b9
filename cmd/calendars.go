package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/coursecal/internal/calendar"
	"github.com/bnema/coursecal/internal/nerdfonts"
)

var calendarsCmd = &cobra.Command{
	Use:   "calendars",
	Short: "List available calendars",
	Long: `List all calendars accessible with your Google account, including the ones
created by previous syncs.

Example:
  coursecal calendars`,
	RunE: runCalendars,
}

func runCalendars(cmd *cobra.Command, args []string) error {
	authManager, err := newAuthManager()
	if err != nil {
		return err
	}

	token, err := authManager.AccessToken(cmd.Context(), false)
	if err != nil {
		return fmt.Errorf("authentication required. Run 'coursecal auth' first: %w", err)
	}

	client, err := calendar.NewClient(cmd.Context(), token, cfg.Sync.RequestTimeout, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize calendar client: %w", err)
	}

	calendars, err := client.ListCalendars(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list calendars: %w", err)
	}

	fmt.Println("=== Available Calendars ===")
	for _, cal := range calendars {
		icon := nerdfonts.Calendar
		if cal.Summary == cfg.Calendar.Name {
			icon = nerdfonts.CalendarCheck
		}

		fmt.Printf("%s %s\n", icon, cal.Summary)
		fmt.Printf("  ID: %s\n", cal.Id)
		if cal.TimeZone != "" {
			fmt.Printf("  Time zone: %s\n", cal.TimeZone)
		}
		fmt.Printf("  Access Role: %s\n", cal.AccessRole)
		if cal.Primary {
			fmt.Printf("  Primary: Yes\n")
		}
		fmt.Println()
	}

	fmt.Printf("Total calendars: %d\n", len(calendars))
	return nil
}

func init() {
	rootCmd.AddCommand(calendarsCmd)
}
