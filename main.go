package main

import (
	"os"
	"path/filepath"
	_ "time/tzdata"

	"github.com/subosito/gotenv"

	"github.com/bnema/coursecal/cmd"
	"github.com/bnema/coursecal/internal/logger"
)

// Set with -ldflags "-X main.Version=..." at release time.
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)

func main() {
	cmd.SetVersionInfo(Version, CommitHash, BuildTime)
	cmd.SetEnvFile(loadDotEnv(dotEnvCandidates()))

	if err := cmd.Execute(); err != nil {
		logger.Error("coursecal failed", "error", err)
		os.Exit(1)
	}
}

// dotEnvCandidates lists where COURSECAL_CLIENT_ID and friends may be kept,
// most specific first.
func dotEnvCandidates() []string {
	paths := []string{".env"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "coursecal", ".env"))
	}
	return paths
}

// loadDotEnv loads the first readable file and returns its path, or "" when
// none loaded. Variables already set in the environment are kept.
func loadDotEnv(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := gotenv.Load(p); err == nil {
			return p
		}
	}
	return ""
}
