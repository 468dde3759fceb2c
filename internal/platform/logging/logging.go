package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Config captures logging configuration options.
type Config struct {
	Level    string
	Dir      string
	Filename string
}

// Logger writes human-readable text to the console and JSON lines to a file.
type Logger struct {
	textLogger *slog.Logger
	jsonLogger *slog.Logger
	logFile    *os.File
}

var (
	colorReset = "\x1b[0m"
	colorTime  = "\x1b[90m"
	colorDebug = "\x1b[36m"
	colorInfo  = "\x1b[32m"
	colorWarn  = "\x1b[33m"
	colorError = "\x1b[31m"
)

// moduleColors maps log tags to console colors.
var moduleColors = map[string]string{
	"BOOT":     "\x1b[96m",
	"HTTP":     "\x1b[95m",
	"WS":       "\x1b[92m",
	"VISION":   "\x1b[34m",
	"PIPELINE": "\x1b[94m",
	"ARTIFACT": "\x1b[97m",
	"STORAGE":  "\x1b[36m",
	"AUTH":     "\x1b[93m",
}

// textHandler renders records as colored single-line console output.
type textHandler struct {
	writer io.Writer
	level  slog.Level
	mu     sync.Mutex
}

func (h *textHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *textHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	timeStr := r.Time.Format("2006-01-02 15:04:05.000")

	var levelColor string
	switch r.Level {
	case slog.LevelDebug:
		levelColor = colorDebug
	case slog.LevelWarn:
		levelColor = colorWarn
	case slog.LevelError:
		levelColor = colorError
	default:
		levelColor = colorInfo
	}

	msg := r.Message
	var output string
	if tag, ok := tagOf(msg); ok {
		moduleColor, known := moduleColors[tag]
		if !known {
			moduleColor = levelColor
		}
		output = fmt.Sprintf("%s[%s]%s %s%s%s",
			colorTime, timeStr, colorReset,
			moduleColor, msg, colorReset)
	} else {
		output = fmt.Sprintf("%s[%s]%s %s[%s]%s %s",
			colorTime, timeStr, colorReset,
			levelColor, r.Level.String(), colorReset,
			msg)
	}

	if r.NumAttrs() > 0 {
		output += " {"
		r.Attrs(func(a slog.Attr) bool {
			output += fmt.Sprintf(" %s=%v", a.Key, a.Value)
			return true
		})
		output += " }"
	}
	output += "\n"

	_, err := h.writer.Write([]byte(output))
	return err
}

func (h *textHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *textHandler) WithGroup(string) slog.Handler      { return h }

func tagOf(msg string) (string, bool) {
	if !strings.HasPrefix(msg, "[") {
		return "", false
	}
	end := strings.IndexByte(msg, ']')
	if end <= 1 {
		return "", false
	}
	return msg[1:end], true
}

func parseLevel(configLevel string) slog.Level {
	switch strings.ToLower(configLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a Logger writing to stdout and, when Dir is set, a JSON log file.
func New(cfg Config) (*Logger, error) {
	level := parseLevel(cfg.Level)

	logger := &Logger{
		textLogger: slog.New(&textHandler{writer: os.Stdout, level: level}),
	}

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		filename := cfg.Filename
		if filename == "" {
			filename = "server.log"
		}
		logPath := filepath.Join(cfg.Dir, filename)
		file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		logger.logFile = file
		logger.jsonLogger = slog.New(slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level}))
	}

	return logger, nil
}

// Slog exposes the console logger for packages that integrate with slog directly.
func (l *Logger) Slog() *slog.Logger {
	return l.textLogger
}

func (l *Logger) log(level slog.Level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.textLogger.Log(context.Background(), level, msg)
	if l.jsonLogger != nil {
		l.jsonLogger.Log(context.Background(), level, msg)
	}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(slog.LevelDebug, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(slog.LevelInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(slog.LevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(slog.LevelError, format, args...)
}

// Tagged variants prefix the message with a module tag for console coloring.

func (l *Logger) DebugTag(tag, format string, args ...interface{}) {
	l.Debug("["+tag+"] "+format, args...)
}

func (l *Logger) InfoTag(tag, format string, args ...interface{}) {
	l.Info("["+tag+"] "+format, args...)
}

func (l *Logger) WarnTag(tag, format string, args ...interface{}) {
	l.Warn("["+tag+"] "+format, args...)
}

func (l *Logger) ErrorTag(tag, format string, args ...interface{}) {
	l.Error("["+tag+"] "+format, args...)
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.logFile != nil {
		return l.logFile.Close()
	}
	return nil
}
