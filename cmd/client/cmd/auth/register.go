package auth

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hydrosync/cmd/client/cmd/types"
)

var registerLogin string

var RegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Зарегистрировать новый аккаунт",
	Long: `Создает аккаунт на сервере и сразу выполняет вход.

Локальные записи, сделанные до входа, будут выгружены в новый аккаунт.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		p := types.PrinterFromContext(cmd.Context())

		in := bufio.NewReader(cmd.InOrStdin())
		login, err := readLogin(in, cmd.ErrOrStderr(), registerLogin)
		if err != nil {
			return err
		}
		password, err := readPassword(in, cmd.ErrOrStderr(), "Пароль: ")
		if err != nil {
			return err
		}
		if len(password) < minPasswordLen {
			return fmt.Errorf("пароль должен содержать минимум %d символов", minPasswordLen)
		}
		confirm, err := readPassword(in, cmd.ErrOrStderr(), "Повторите пароль: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("пароли не совпадают")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		userID, err := app.Register(ctx, login, password)
		if err != nil {
			return fmt.Errorf("ошибка регистрации: %w", err)
		}
		p.Success("Аккаунт %s создан", login)

		res, err := app.Login(ctx, login, password)
		if err != nil {
			return fmt.Errorf("ошибка входа: %w", err)
		}
		p.Success("Вход выполнен, выгружено записей: %d", res.Uploaded)

		return p.Encode(map[string]any{"user_id": userID, "login": login, "sync": res})
	},
}

func init() {
	RegisterCmd.Flags().StringVarP(&registerLogin, "login", "l", "", "логин")
}
