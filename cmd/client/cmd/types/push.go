package types

import (
	"context"
	"errors"
	"time"

	"hydrosync/internal/app/client"
	"hydrosync/internal/app/client/syncengine"
)

// Push выгружает локальные изменения после команды. Ошибки не прерывают
// команду: запись уже сохранена локально и уйдет со следующим проходом.
func Push(ctx context.Context, app *client.App, p *Printer) {
	if !app.IsAuthenticated() {
		p.Hint("Сохранено локально. Выполните вход для синхронизации: hydrosync auth login")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if _, err := app.Sync(ctx, syncengine.ReasonMutation); err != nil {
		if errors.Is(err, syncengine.ErrSyncInProgress) {
			return
		}
		p.Warn("Не удалось синхронизировать: %v", err)
		p.Hint("Изменения сохранены локально и будут выгружены позже")
	}
}
