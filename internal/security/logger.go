package security

import (
	"context"
	"io"
	"log/slog"
	"os"
	"regexp"
)

// SecureLogger writes auth and network events as JSON with credentials
// redacted. It is silent unless verbose.
type SecureLogger struct {
	logger *slog.Logger
}

var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(Bearer\s+)()([A-Za-z0-9\-._~+/]+=*)`),
	regexp.MustCompile(`(?i)(access_token|refresh_token|authorization|client_secret|device_code)(["':=\s]+["']?)([A-Za-z0-9\-._~+/]+=*)`),
	regexp.MustCompile(`(?i)(ya29\.)()([A-Za-z0-9\-._~+/]+)`),
	regexp.MustCompile(`([?&](?:token|key|secret|code)=)()([^&\s]+)`),
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }

func NewSecureLogger(verbose bool) *SecureLogger {
	if !verbose {
		return &SecureLogger{logger: slog.New(discardHandler{})}
	}
	return newSecureLogger(os.Stderr)
}

func newSecureLogger(w io.Writer) *SecureLogger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Value.Kind() == slog.KindString {
				a.Value = slog.StringValue(RedactString(a.Value.String()))
			}
			return a
		},
	}
	return &SecureLogger{logger: slog.New(slog.NewJSONHandler(w, opts))}
}

func (sl *SecureLogger) Info(msg string, args ...any) {
	sl.logger.Info(msg, args...)
}

func (sl *SecureLogger) Warn(msg string, args ...any) {
	sl.logger.Warn(msg, args...)
}

func (sl *SecureLogger) Error(msg string, args ...any) {
	sl.logger.Error(msg, args...)
}

// LogAuthEvent records one step of token acquisition.
func (sl *SecureLogger) LogAuthEvent(operation string, success bool, details map[string]any) {
	attrs := []any{
		slog.String("event_type", "authentication"),
		slog.String("operation", operation),
		slog.Bool("success", success),
	}
	for k, v := range details {
		attrs = append(attrs, slog.Any(k, v))
	}

	if success {
		sl.logger.Info("Authentication event", attrs...)
	} else {
		sl.logger.Warn("Authentication event", attrs...)
	}
}

// LogNetworkEvent records one calendar API round trip.
func (sl *SecureLogger) LogNetworkEvent(method, url string, statusCode int, duration string) {
	sl.logger.Info("Network event",
		slog.String("event_type", "network"),
		slog.String("method", method),
		slog.String("url", url),
		slog.Int("status_code", statusCode),
		slog.String("duration", duration),
	)
}

// RedactString masks tokens, secrets and credential query parameters.
func RedactString(input string) string {
	out := input
	for _, p := range sensitivePatterns {
		out = p.ReplaceAllString(out, "${1}${2}[REDACTED]")
	}
	return out
}
