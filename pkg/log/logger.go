package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// SetupLogger function setup the process-wide default logger.
func SetupLogger(loglevel string) {
	slog.SetDefault(NewLogger(os.Stdout, loglevel))
}

// NewLogger returns a JSON slog.Logger writing to w.
// Errors carrying a cockroachdb stacktrace get a dedicated attribute.
func NewLogger(w io.Writer, loglevel string) *slog.Logger {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     ToLogLevel(loglevel),
		// Replace attributes to convert to CloudLogging format.
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr = slog.Attr{
					Key:   "severity",
					Value: attr.Value,
				}
			case slog.MessageKey:
				attr = slog.Attr{
					Key:   "message",
					Value: attr.Value,
				}
			case slog.SourceKey:
				attr = slog.Attr{
					Key:   "logging.googleapis.com/sourceLocation",
					Value: attr.Value,
				}
			}
			return attr
		},
	}
	handler := slog.NewJSONHandler(w, &ops)
	return slog.New(WrapByErrFmtHandler(handler))
}

func ToLogLevel(level string) slog.Level {
	switch level {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// TrialAttrs returns the standard attributes attached to per-trial log records.
func TrialAttrs(trialID int, state string) []any {
	return []any{
		slog.Int("trial_id", trialID),
		slog.String("state", state),
	}
}
