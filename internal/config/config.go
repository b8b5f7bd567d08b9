package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const envPrefix = "COURSECAL"

type Config struct {
	Calendar      CalendarConfig     `mapstructure:"calendar"`
	Sync          SyncConfig         `mapstructure:"sync"`
	Spreadsheet   SpreadsheetConfig  `mapstructure:"spreadsheet"`
	Server        ServerConfig       `mapstructure:"server"`
	Notifications NotificationConfig `mapstructure:"notifications"`
}

type CalendarConfig struct {
	Name     string `mapstructure:"name" validate:"required"`
	TimeZone string `mapstructure:"timezone" validate:"required,timezone"`
}

type SyncConfig struct {
	Workers              int           `mapstructure:"workers" validate:"min=1,max=16"`
	FailurePolicy        string        `mapstructure:"failure_policy" validate:"oneof=best_effort abort"`
	AlignFirstOccurrence bool          `mapstructure:"align_first_occurrence"`
	RequestTimeout       time.Duration `mapstructure:"request_timeout" validate:"min=5s,max=5m"`
}

type SpreadsheetConfig struct {
	HeaderRow int    `mapstructure:"header_row" validate:"min=0"`
	Sheet     string `mapstructure:"sheet"`
}

type ServerConfig struct {
	Listen         string   `mapstructure:"listen" validate:"required,hostname_port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type NotificationConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

var defaultConfig = Config{
	Calendar: CalendarConfig{
		Name:     "UBC Courses",
		TimeZone: "America/Vancouver",
	},
	Sync: SyncConfig{
		Workers:        1,
		FailurePolicy:  "best_effort",
		RequestTimeout: 30 * time.Second,
	},
	Spreadsheet: SpreadsheetConfig{
		HeaderRow: 2,
	},
	Server: ServerConfig{
		Listen:         "127.0.0.1:8765",
		AllowedOrigins: []string{},
	},
	Notifications: NotificationConfig{
		Enabled: false,
	},
}

// Default returns a copy of the built-in configuration.
func Default() *Config {
	cfg := defaultConfig
	cfg.Server.AllowedOrigins = append([]string{}, defaultConfig.Server.AllowedOrigins...)
	return &cfg
}

// Load reads config.toml from configPath, which may name the file itself or
// the directory holding it. An empty path means the default directory, where
// a commented default file is created on first run. COURSECAL_* environment
// variables override file values, e.g. COURSECAL_SYNC_WORKERS=4.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	if strings.HasSuffix(configPath, ".toml") {
		v.SetConfigFile(configPath)
	} else {
		if configPath == "" {
			configDir, err := getDefaultConfigDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get config directory: %w", err)
			}
			configPath = configDir
			if err := createDefaultConfig(configPath); err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
		}
		v.SetConfigName("config")
		v.AddConfigPath(configPath)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks value ranges and formats.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s = %v fails %q", fe.Namespace(), fe.Value(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Calendar
	v.SetDefault("calendar.name", defaultConfig.Calendar.Name)
	v.SetDefault("calendar.timezone", defaultConfig.Calendar.TimeZone)

	// Sync
	v.SetDefault("sync.workers", defaultConfig.Sync.Workers)
	v.SetDefault("sync.failure_policy", defaultConfig.Sync.FailurePolicy)
	v.SetDefault("sync.align_first_occurrence", defaultConfig.Sync.AlignFirstOccurrence)
	v.SetDefault("sync.request_timeout", defaultConfig.Sync.RequestTimeout)

	// Spreadsheet
	v.SetDefault("spreadsheet.header_row", defaultConfig.Spreadsheet.HeaderRow)
	v.SetDefault("spreadsheet.sheet", defaultConfig.Spreadsheet.Sheet)

	// Server
	v.SetDefault("server.listen", defaultConfig.Server.Listen)
	v.SetDefault("server.allowed_origins", defaultConfig.Server.AllowedOrigins)

	// Notifications
	v.SetDefault("notifications.enabled", defaultConfig.Notifications.Enabled)
}

func createDefaultConfig(configPath string) error {
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configFile := filepath.Join(configPath, "config.toml")

	if _, err := os.Stat(configFile); err == nil {
		return nil // Already exists
	}

	configContent := `# coursecal configuration

[calendar]
name = "UBC Courses"
timezone = "America/Vancouver"

[sync]
workers = 1                      # concurrent event inserts
failure_policy = "best_effort"   # or "abort" to stop at the first rejected event
align_first_occurrence = false   # start events on their first meeting day
request_timeout = "30s"

[spreadsheet]
header_row = 2   # 0-based row holding column names
sheet = ""       # empty means the first sheet

[server]
listen = "127.0.0.1:8765"
allowed_origins = []

[notifications]
enabled = false   # same as always passing --notify to sync
`

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func getDefaultConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "coursecal"), nil
}

func GetDefaultConfigDir() (string, error) {
	return getDefaultConfigDir()
}

// GetDefaultCacheDir is where the sealed OAuth token lives.
func GetDefaultCacheDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".cache", "coursecal"), nil
}
