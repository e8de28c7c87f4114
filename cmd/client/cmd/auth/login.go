// cmd/client/cmd/auth/login.go
package auth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hydrosync/cmd/client/cmd/types"
	"hydrosync/internal/app/client/syncengine"
)

var loginName string

var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Войти в аккаунт",
	Long: `Аутентификация на сервере Hydrosync.

После входа токен сохраняется локально, локальные записи выгружаются,
а записи с других устройств загружаются и сливаются с локальными.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		p := types.PrinterFromContext(cmd.Context())

		in := bufio.NewReader(cmd.InOrStdin())
		login, err := readLogin(in, cmd.ErrOrStderr(), loginName)
		if err != nil {
			return err
		}
		password, err := readPassword(in, cmd.ErrOrStderr(), "Пароль: ")
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		res, err := app.Login(ctx, login, password)
		var syncErr *syncengine.SyncError
		switch {
		case errors.As(err, &syncErr):
			p.Success("Вход выполнен")
			p.Warn("Синхронизация не завершена на шаге %s: %v", syncErr.Step, syncErr.Err)
			p.Hint("Записи сохранены локально и будут выгружены позже")
		case err != nil:
			return fmt.Errorf("ошибка аутентификации: %w", err)
		default:
			p.Success("Вход выполнен")
			p.Printf("Выгружено: %d, загружено: %d\n", res.Uploaded+res.PresetsUploaded, res.Downloaded)
		}

		state := app.State()
		return p.Encode(map[string]any{"user_id": state.UserID, "login": state.Login, "sync": res})
	},
}

func init() {
	LoginCmd.Flags().StringVarP(&loginName, "login", "l", "", "логин")
}
