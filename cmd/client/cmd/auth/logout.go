package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hydrosync/cmd/client/cmd/types"
)

var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Выйти из аккаунта",
	Long:  `Завершает сессию на сервере и удаляет локальный токен. Локальные записи остаются.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		p := types.PrinterFromContext(cmd.Context())

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		if err := app.Logout(ctx); err != nil {
			return fmt.Errorf("ошибка выхода: %w", err)
		}
		p.Success("Выход выполнен")
		return p.Encode(map[string]string{"status": "logged_out"})
	},
}
