package logging

import (
	"io"
	"os"
	"strings"
)

// Config holds the logger settings. The server populates it from the
// LOG_LEVEL, LOG_FORMAT, and LOG_OUTPUT environment variables.
type Config struct {
	// Level is the minimum log level to emit (DEBUG, INFO, WARN, ERROR, FATAL)
	Level string
	// Format is the output format; only json is produced today
	Format string
	// Output is the destination: stdout, stderr, or a file path
	Output string
}

// DefaultConfig returns the logger settings used when none are configured:
// info-level JSON on stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "json",
		Output: "stderr",
	}
}

// NewLogger builds a Logger from cfg. A nil cfg gets DefaultConfig.
func NewLogger(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	output, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}

	return New(parseLevel(cfg.Level), output), nil
}

// parseLevel converts a level name to a LogLevel. Unknown names fall back
// to info so a typo in LOG_LEVEL never silences the service.
func parseLevel(level string) LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return DebugLevel
	case "INFO":
		return InfoLevel
	case "WARN":
		return WarnLevel
	case "ERROR":
		return ErrorLevel
	case "FATAL":
		return FatalLevel
	default:
		return InfoLevel
	}
}

// openOutput resolves the configured destination to a writer. Anything other
// than stdout/stderr is treated as a file path and opened for append.
func openOutput(output string) (io.Writer, error) {
	switch output {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		file, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		return file, nil
	}
}
