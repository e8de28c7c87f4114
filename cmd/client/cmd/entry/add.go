package entry

import (
	"fmt"

	"github.com/spf13/cobra"

	"hydrosync/cmd/client/cmd/types"
	"hydrosync/internal/app/client/eventstore"
)

var (
	addName   string
	addIcon   string
	addVolume int
	addFactor int
	addAt     string
)

var AddCmd = &cobra.Command{
	Use:   "add",
	Short: "Добавить запись",
	Example: `  hydrosync entry add --name Кофе --volume 250 --factor 90
  hydrosync entry add --name Чай --volume 300 --at "2026-03-14 08:15"`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		p := types.PrinterFromContext(cmd.Context())

		ts, err := types.ParseTimestamp(addAt)
		if err != nil {
			return err
		}

		entry, err := app.Store().RecordManualEntry(eventstore.ManualInput{
			Name:            addName,
			Icon:            addIcon,
			VolumeMl:        addVolume,
			HydrationFactor: addFactor,
			Timestamp:       ts,
		})
		if err != nil {
			return fmt.Errorf("ошибка добавления записи: %w", err)
		}

		p.Success("Запись добавлена: засчитано %d мл", entry.CalculatedVolumeMl)
		if err := printEntry(p, entry); err != nil {
			return err
		}
		types.Push(cmd.Context(), app, p)
		return nil
	},
}

func init() {
	AddCmd.Flags().StringVarP(&addName, "name", "n", "Вода", "название напитка")
	AddCmd.Flags().StringVar(&addIcon, "icon", "", "значок")
	AddCmd.Flags().IntVarP(&addVolume, "volume", "v", 0, "объем, мл")
	AddCmd.Flags().IntVarP(&addFactor, "factor", "f", 100, "коэффициент гидратации, %")
	AddCmd.Flags().StringVar(&addAt, "at", "", "время записи (по умолчанию сейчас)")
	_ = AddCmd.MarkFlagRequired("volume")
}
