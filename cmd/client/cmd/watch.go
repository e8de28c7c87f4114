package cmd

import (
	"github.com/spf13/cobra"

	"hydrosync/cmd/client/cmd/types"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Фоновая синхронизация без бутылки",
	Long: `Держит подписку на изменения с других устройств, синхронизирует по
расписанию и после восстановления связи. Работает до Ctrl+C.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		p := types.PrinterFromContext(cmd.Context())

		if !app.IsAuthenticated() {
			p.Warn("Вход не выполнен: синхронизация начнется после hydrosync auth login")
		}
		p.Println("Нажмите Ctrl+C для выхода")
		return app.Run(cmd.Context(), false)
	},
}
