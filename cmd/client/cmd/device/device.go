// Package device команды работы с бутылкой
package device

import (
	"fmt"

	"github.com/spf13/cobra"

	"hydrosync/cmd/client/cmd/types"
	"hydrosync/internal/app/client/devicelink"
)

// DeviceCmd - родительская команда бутылки
var DeviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Умная бутылка",
}

var ConnectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Подключиться к бутылке и записывать глотки",
	Long: `Находит бутылку по префиксу имени, выполняет рукопожатие и записывает
глотки до Ctrl+C. При потере связи команда завершается; для нового
подключения запустите ее снова.

Параллельно работают синхронизация по расписанию и подписка на изменения
с других устройств.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		p := types.PrinterFromContext(cmd.Context())

		link := app.Link()
		link.OnStatus(func(s devicelink.Status) {
			switch s {
			case devicelink.StatusConnected:
				msg := fmt.Sprintf("Бутылка %s подключена", link.DeviceName())
				if battery, ok := link.Battery(); ok {
					msg += fmt.Sprintf(", заряд %d%%", battery)
				}
				p.Success("%s", msg)
			case devicelink.StatusConnecting:
				p.Hint("Поиск бутылки...")
			case devicelink.StatusDisconnected:
				p.Warn("Бутылка отключена")
			}
		})
		app.Store().Subscribe(newSipReporter(p, len(app.Store().BottleSips())))

		p.Println("Нажмите Ctrl+C для выхода")
		return app.Run(cmd.Context(), true)
	},
}
