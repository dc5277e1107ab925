package log

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/hypertune/pkg/errors"
)

// EnableZerologWarnings routes library warnings to a zerolog logger writing to w.
// Warning types implementing zerolog.LogObjectMarshaler are emitted as
// structured events; anything else falls back to the plain error message.
func EnableZerologWarnings(w io.Writer) zerolog.Logger {
	logger := zerolog.New(w).With().Timestamp().Logger()
	errors.SetZerologWarnFunc(func(warning error) {
		event := logger.Warn()
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			event.EmbedObject(obj).Msg(warning.Error())
			return
		}
		event.Err(warning).Msg("warning")
	})
	return logger
}
