package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
	With().Timestamp().Logger()

// splitWriter keeps progress and summaries on stdout while warnings and
// per-row drop diagnostics go to stderr.
type splitWriter struct {
	out zerolog.LevelWriter
	err zerolog.LevelWriter
}

func (w splitWriter) Write(p []byte) (int, error) {
	return w.out.Write(p)
}

func (w splitWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level >= zerolog.WarnLevel {
		return w.err.WriteLevel(level, p)
	}
	return w.out.WriteLevel(level, p)
}

// Init configures the package logger from viper ("log_level", "log_dir").
// With a log_dir set, everything is mirrored as JSON to a rotating file.
func Init() {
	level, err := zerolog.ParseLevel(viper.GetString("log_level"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	console := splitWriter{
		out: zerolog.LevelWriterAdapter{Writer: zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}},
		err: zerolog.LevelWriterAdapter{Writer: zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}},
	}

	writers := []io.Writer{console}
	if dir := viper.GetString("log_dir"); dir != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(dir, "tp1.log"),
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
		})
	}

	logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).With().Timestamp().Logger()
}

func Debug(v ...any) {
	logger.Debug().Msg(fmt.Sprint(v...))
}

func Debugf(format string, v ...any) {
	logger.Debug().Msgf(format, v...)
}

func Info(v ...any) {
	logger.Info().Msg(fmt.Sprint(v...))
}

func Infof(format string, v ...any) {
	logger.Info().Msgf(format, v...)
}

func Warn(v ...any) {
	logger.Warn().Msg(fmt.Sprint(v...))
}

func Warnf(format string, v ...any) {
	logger.Warn().Msgf(format, v...)
}

func Error(v ...any) {
	logger.Error().Msg(fmt.Sprint(v...))
}

func Errorf(format string, v ...any) {
	logger.Error().Msgf(format, v...)
}

// Fatal logs and exits with code 1.
func Fatal(v ...any) {
	logger.Fatal().Msg(fmt.Sprint(v...))
}

func Fatalf(format string, v ...any) {
	logger.Fatal().Msgf(format, v...)
}

// StatsLogger emits a progress line every interval until ctx is cancelled.
// snapshot must be safe to call from another goroutine.
func StatsLogger(ctx context.Context, interval time.Duration, snapshot func() (records, written int64)) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		start := time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				records, written := snapshot()
				elapsed := time.Since(start).Seconds()
				Infof("progress: records parsed=%d, rows written=%d (%.0f rows/s)", records, written, float64(written)/elapsed)
			}
		}
	}()
}
