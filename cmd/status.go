package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/coursecal/internal/nerdfonts"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check authentication, configuration and the local server",
	Long: `Display the current state of coursecal:
- Authentication status
- Effective calendar and sync settings
- Whether a local server answers on the configured address`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Authentication ===")
	authManager, err := newAuthManager()
	if err != nil {
		fmt.Printf("%s Failed to initialize (%v)\n", nerdfonts.ExclamationTriangle, err)
	} else if authManager.HasValidToken() {
		fmt.Printf("%s Valid\n", nerdfonts.CheckCircle)
	} else {
		fmt.Printf("%s Required (run 'coursecal auth')\n", nerdfonts.ExclamationCircle)
	}
	fmt.Printf("Cache directory: %s\n", cacheDir)

	fmt.Println("\n=== Settings ===")
	fmt.Printf("%s Calendar: %s (%s)\n", nerdfonts.Calendar, cfg.Calendar.Name, cfg.Calendar.TimeZone)
	fmt.Printf("%s Workers: %d, failure policy: %s, align: %t\n", nerdfonts.Repeat,
		cfg.Sync.Workers, cfg.Sync.FailurePolicy, cfg.Sync.AlignFirstOccurrence)
	fmt.Printf("%s Header row: %d\n", nerdfonts.Book, cfg.Spreadsheet.HeaderRow)

	fmt.Println("\n=== Server ===")
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + cfg.Server.Listen + "/health")
	if err != nil {
		fmt.Printf("%s Not running on %s\n", nerdfonts.Ban, cfg.Server.Listen)
		return nil
	}
	defer resp.Body.Close()
	fmt.Printf("%s Running on %s (HTTP %d)\n", nerdfonts.CheckCircle, cfg.Server.Listen, resp.StatusCode)

	return nil
}
