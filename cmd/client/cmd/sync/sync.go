package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hydrosync/cmd/client/cmd/types"
	"hydrosync/internal/app/client"
	"hydrosync/internal/app/client/syncengine"
)

var (
	refresh    bool
	syncStatus bool
)

var SyncCmd = &cobra.Command{
	Use:         "sync",
	Short:       "Синхронизация с сервером",
	Annotations: types.ReadOnly(),
	Long: `Выгружает локальные удаления и несинхронизированные записи.

С флагом --refresh дополнительно загружает все записи с сервера и
сливает их с локальными (несинхронизированные локальные правки побеждают).`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		p := types.PrinterFromContext(cmd.Context())

		if syncStatus {
			return showSyncStatus(cmd.Context(), app, p)
		}
		return runSync(cmd.Context(), app, p)
	},
}

func runSync(ctx context.Context, app *client.App, p *types.Printer) error {
	if err := app.RequireWritable(); err != nil {
		return err
	}
	if !app.IsAuthenticated() {
		return client.ErrNotAuthenticated
	}

	reason := syncengine.ReasonManual
	if refresh {
		reason = syncengine.ReasonRefresh
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	result, err := app.Sync(ctx, reason)
	if err != nil {
		return fmt.Errorf("ошибка синхронизации: %w", err)
	}

	p.Success("Синхронизация завершена за %v", result.Duration.Round(time.Millisecond))
	p.Printf("Удалено на сервере: %d\n", result.Deleted+result.PresetsDeleted)
	p.Printf("Выгружено: %d записей, %d пресетов\n", result.Uploaded, result.PresetsUploaded)
	if refresh {
		p.Printf("Загружено с сервера: %d\n", result.Downloaded)
	}
	return p.Encode(result)
}

type statusView struct {
	Authenticated   bool   `json:"authenticated" yaml:"authenticated"`
	Login           string `json:"login,omitempty" yaml:"login,omitempty"`
	ServerReachable bool   `json:"server_reachable" yaml:"server_reachable"`
	LastSync        string `json:"last_sync,omitempty" yaml:"last_sync,omitempty"`
	PendingUploads  int    `json:"pending_uploads" yaml:"pending_uploads"`
	PendingPresets  int    `json:"pending_presets" yaml:"pending_presets"`
	PendingDeletes  int    `json:"pending_deletes" yaml:"pending_deletes"`
	TodayMl         int    `json:"today_ml" yaml:"today_ml"`
}

func showSyncStatus(ctx context.Context, app *client.App, p *types.Printer) error {
	snap := app.Store().Snapshot()
	state := app.State()

	from, to, _ := types.DayRange("", time.Now())
	view := statusView{
		Authenticated:   app.IsAuthenticated(),
		Login:           state.Login,
		ServerReachable: app.CheckConnection(ctx) == nil,
		PendingUploads:  len(snap.UnsyncedSips()) + len(snap.UnsyncedManualEntries()),
		PendingPresets:  len(snap.UnsyncedPresets()),
		PendingDeletes:  len(snap.PendingDeletions) + len(snap.PendingPresetDeletions),
		TodayMl:         snap.TotalMl(from, to),
	}
	if state.LastSync > 0 {
		view.LastSync = types.FormatTimestamp(state.LastSync)
	}

	if p.Structured() {
		return p.Encode(view)
	}

	p.Println("=== Статус синхронизации ===")
	if view.Authenticated {
		p.Success("Аккаунт: %s", view.Login)
	} else {
		p.Fail("Вход не выполнен")
	}
	if view.ServerReachable {
		p.Success("Сервер доступен")
	} else {
		p.Fail("Сервер недоступен")
	}
	if view.LastSync != "" {
		p.Printf("Последняя синхронизация: %s\n", view.LastSync)
	}
	p.Printf("Ожидают выгрузки: %d записей, %d пресетов\n", view.PendingUploads, view.PendingPresets)
	p.Printf("Ожидают удаления: %d\n", view.PendingDeletes)
	p.Printf("Выпито сегодня: %d мл\n", view.TodayMl)
	return nil
}

func init() {
	SyncCmd.Flags().BoolVarP(&refresh, "refresh", "r", false, "загрузить все записи с сервера")
	SyncCmd.Flags().BoolVar(&syncStatus, "status", false, "показать статус синхронизации")
}
