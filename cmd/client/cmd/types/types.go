// Package types общие для команд клиента значения: приложение в контексте
// команды, формат вывода и разбор времени.
package types

import (
	"context"
	"errors"

	"hydrosync/internal/app/client"
)

type ctxKey string

const (
	ClientAppKey ctxKey = "app"
	PrinterKey   ctxKey = "printer"
)

// ReadOnlyAnnotation помечает команды, которым не нужна запись локальных данных.
// Они работают и при запущенном watch или device connect.
const ReadOnlyAnnotation = "hydrosync/readonly"

// ReadOnly аннотации команды только для чтения
func ReadOnly() map[string]string {
	return map[string]string{ReadOnlyAnnotation: "true"}
}

var ErrNoApp = errors.New("приложение не инициализировано")

// WithApp кладет приложение и принтер в контекст команды
func WithApp(ctx context.Context, app *client.App, p *Printer) context.Context {
	ctx = context.WithValue(ctx, ClientAppKey, app)
	return context.WithValue(ctx, PrinterKey, p)
}

func AppFromContext(ctx context.Context) (*client.App, error) {
	app, ok := ctx.Value(ClientAppKey).(*client.App)
	if !ok || app == nil {
		return nil, ErrNoApp
	}
	return app, nil
}

// PrinterFromContext возвращает текстовый принтер в stdout, если в контексте его нет
func PrinterFromContext(ctx context.Context) *Printer {
	if p, ok := ctx.Value(PrinterKey).(*Printer); ok && p != nil {
		return p
	}
	return NewPrinter(FormatText, nil)
}
