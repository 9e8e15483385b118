package log

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// SetupLogger configures zerolog for the process and installs a global
// provider writing to w at the given level name.
func SetupLogger(loglevel string, w io.Writer) LoggerProvider {
	level := ToLogLevel(loglevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.ErrorStackMarshaler = marshalStack
	zerolog.SetGlobalLevel(toZerologLevel(level))

	provider := NewZerologProviderWithWriter(w, level)
	SetGlobalLoggerProvider(provider)
	return provider
}

// ToLogLevel parses a level name. Unknown names map to LevelInfo.
func ToLogLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// marshalStack extracts the stack recorded by cockroachdb/errors.
func marshalStack(err error) interface{} {
	return extractStacktrace(err)
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}
