package logger

import (
	"context"
	"io"
	"os"

	"golang.org/x/exp/slog"
	"gopkg.in/natefinch/lumberjack.v2"

	"hydrosync/internal/utils/logger/handlers/slogpretty"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// New создает логгер в зависимости от окружения
func New(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = setupPrettySlog()
	}

	return log
}

// NewWithFile дублирует записи в JSON файл с ротацией
func NewWithFile(env, path string) *slog.Logger {
	if path == "" {
		return New(env)
	}

	level := slog.LevelDebug
	if env == envProd {
		level = slog.LevelInfo
	}

	fileHandler := slog.NewJSONHandler(rotatingFile(path), &slog.HandlerOptions{Level: level})
	return slog.New(&fanout{handlers: []slog.Handler{New(env).Handler(), fileHandler}})
}

// NewCLI логгер консольного клиента: предупреждения в stderr, чтобы не смешивать
// их с выводом команд; с debug пишутся все уровни. Файл path (если задан) получает JSON.
func NewCLI(debug bool, path string) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{Level: level},
	}
	console := opts.NewPrettyHandler(os.Stderr)
	if path == "" {
		return slog.New(console)
	}

	fileHandler := slog.NewJSONHandler(rotatingFile(path), &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(&fanout{handlers: []slog.Handler{console, fileHandler}})
}

// rotatingFile файл с ротацией: 10 МБ, 3 архива, 28 дней
func rotatingFile(path string) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
}

func setupPrettySlog() *slog.Logger {
	return setupPrettySlogTo(os.Stdout)
}

func setupPrettySlogTo(out io.Writer) *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{Level: slog.LevelDebug},
	}
	return slog.New(opts.NewPrettyHandler(out))
}

// fanout отправляет запись во все обработчики
type fanout struct {
	handlers []slog.Handler
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &fanout{handlers: next}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithGroup(name)
	}
	return &fanout{handlers: next}
}
