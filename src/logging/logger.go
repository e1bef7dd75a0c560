package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls how New builds the process logger.
type Options struct {
	Level  string
	Format string // "json" or "console"
	File   string // optional rotating log file
}

// New returns the process logger. The returned closer releases the log file, if any.
func New(opts Options) (zerolog.Logger, io.Closer) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var console io.Writer = os.Stderr
	if opts.Format == "console" {
		console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	var closer io.Closer = nopCloser{}
	writer := console
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		}
		closer = lj
		writer = zerolog.MultiLevelWriter(console, lj)
	}

	return zerolog.New(writer).Level(level).With().Timestamp().Logger(), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
