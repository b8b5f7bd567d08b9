package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/coursecal/internal/nerdfonts"
)

var (
	revokeFlag bool
	statusOnly bool
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Google Calendar authentication",
	Long: `Authenticate with Google Calendar API using OAuth 2.0 device flow.

Client credentials come from --client-secrets, COURSECAL_CLIENT_ID and
COURSECAL_CLIENT_SECRET (also read from a .env file), or the build.

Examples:
  coursecal auth                                  # Authenticate with device flow
  coursecal auth --client-secrets client.json     # Use a downloaded client secrets file
  coursecal auth --status                         # Check authentication status
  coursecal auth --revoke                         # Clear local authentication`,
	RunE: runAuth,
}

func init() {
	authCmd.Flags().BoolVar(&revokeFlag, "revoke", false, "clear local authentication")
	authCmd.Flags().BoolVar(&statusOnly, "status", false, "check authentication status only")
}

func runAuth(cmd *cobra.Command, args []string) error {
	authManager, err := newAuthManager()
	if err != nil {
		return err
	}

	if statusOnly {
		if authManager.HasValidToken() {
			fmt.Printf("%s Authentication: Valid\n", nerdfonts.CheckCircle)
		} else {
			fmt.Printf("%s Authentication: Required\n", nerdfonts.ExclamationCircle)
		}
		return nil
	}

	if revokeFlag {
		fmt.Printf("%s Clearing authentication...\n", nerdfonts.InfoCircle)
		if err := authManager.ClearLocalToken(); err != nil {
			return fmt.Errorf("failed to clear authentication: %w", err)
		}
		fmt.Printf("%s Authentication cleared successfully\n", nerdfonts.CheckCircle)
		return nil
	}

	if authManager.HasValidToken() {
		fmt.Printf("%s Already authenticated with Google Calendar\n", nerdfonts.CheckCircle)
		fmt.Println("Use --revoke to re-authenticate or --status to check status")
		return nil
	}

	fmt.Printf("%s Starting device authentication...\n", nerdfonts.InfoCircle)
	fmt.Println("Follow the instructions to complete Google Calendar authorization.")
	fmt.Println()

	if err := authManager.Authenticate(cmd.Context()); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	if !authManager.HasValidToken() {
		return fmt.Errorf("authentication completed but token is not valid")
	}

	fmt.Printf("%s Authentication successful!\n", nerdfonts.CheckCircle)
	fmt.Println("You can now use 'coursecal sync FILE' to create your course calendar.")

	return nil
}
