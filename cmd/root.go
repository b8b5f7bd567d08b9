package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bnema/coursecal/internal/calendar"
	"github.com/bnema/coursecal/internal/config"
	"github.com/bnema/coursecal/internal/logger"
	"github.com/bnema/coursecal/internal/schedule"
	"github.com/bnema/coursecal/internal/spreadsheet"
)

var (
	cacheDir          string
	verbose           bool
	clientSecretsPath string
	cfgFile           string
	cfg               *config.Config
	envFile           string

	// Version information
	version    string
	commitHash string
	buildTime  string
)

var rootCmd = &cobra.Command{
	Use:   "coursecal",
	Short: "Turn a course registration export into a Google Calendar",
	Long: `coursecal reads the "View My Courses" spreadsheet exported from Workday,
extracts every registered section's meeting patterns and creates a dedicated
Google Calendar holding one recurring event per meeting pattern.

Sections can also be previewed, exported as an .ics file, or served to the
browser extension over a local HTTP API.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, commit, buildTimeStr string) {
	version = v
	commitHash = commit
	buildTime = buildTimeStr

	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commitHash, buildTime)
}

// SetEnvFile records which .env file was loaded before startup, if any.
func SetEnvFile(path string) {
	envFile = path
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "cache directory (default: ~/.cache/coursecal)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file or directory (default is $HOME/.config/coursecal/config.toml)")
	rootCmd.PersistentFlags().StringVar(&clientSecretsPath, "client-secrets", "", "path to a Google OAuth client secrets JSON file")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(serveCmd)
}

func initConfig() {
	logger.Init(verbose)
	logger.Debug("starting coursecal", "version", version, "commit", commitHash, "built", buildTime)
	if envFile != "" {
		logger.Debug("loaded environment file", "path", envFile)
	}

	if cacheDir == "" {
		defaultCacheDir, err := config.GetDefaultCacheDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting default cache directory: %v\n", err)
			os.Exit(1)
		}
		cacheDir = defaultCacheDir
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
}

func newAuthManager() (*calendar.AuthManager, error) {
	opts := &calendar.AuthOptions{ClientSecretsPath: clientSecretsPath}
	am, err := calendar.NewAuthManager(cacheDir, opts, verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth manager: %w", err)
	}
	return am, nil
}

// syncOptions maps the [calendar] and [sync] config sections.
func syncOptions(interactive bool) calendar.SyncOptions {
	return calendar.SyncOptions{
		CalendarName:         cfg.Calendar.Name,
		TimeZone:             cfg.Calendar.TimeZone,
		Workers:              cfg.Sync.Workers,
		FailurePolicy:        calendar.FailurePolicy(cfg.Sync.FailurePolicy),
		AlignFirstOccurrence: cfg.Sync.AlignFirstOccurrence,
		Interactive:          interactive,
	}
}

func newSyncer(opts calendar.SyncOptions) (*calendar.Syncer, error) {
	am, err := newAuthManager()
	if err != nil {
		return nil, err
	}
	return calendar.NewSyncer(am, calendar.GoogleFactory(cfg.Sync.RequestTimeout, verbose), opts)
}

// readSchedule decodes a registration export and extracts its courses.
func readSchedule(path, sheet string) (schedule.Result, error) {
	if sheet == "" {
		sheet = cfg.Spreadsheet.Sheet
	}
	rows, err := spreadsheet.ReadFile(path, spreadsheet.Options{Sheet: sheet})
	if err != nil {
		return schedule.Result{}, err
	}

	result := schedule.Extract(rows, cfg.Spreadsheet.HeaderRow)
	for _, skip := range result.Skipped {
		logger.Warn("skipped meeting pattern", "row", skip.Row, "section", skip.Section, "reason", skip.Reason)
	}
	return result, nil
}
