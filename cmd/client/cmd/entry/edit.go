package entry

import (
	"fmt"

	"github.com/spf13/cobra"

	"hydrosync/cmd/client/cmd/types"
	"hydrosync/internal/app/client/eventstore"
)

var EditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Изменить запись",
	Long:  `Меняет только переданные поля. Засчитанный объем пересчитывается.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		p := types.PrinterFromContext(cmd.Context())

		var patch eventstore.ManualPatch
		flags := cmd.Flags()
		if flags.Changed("name") {
			v, _ := flags.GetString("name")
			patch.Name = &v
		}
		if flags.Changed("icon") {
			v, _ := flags.GetString("icon")
			patch.Icon = &v
		}
		if flags.Changed("volume") {
			v, _ := flags.GetInt("volume")
			patch.VolumeMl = &v
		}
		if flags.Changed("factor") {
			v, _ := flags.GetInt("factor")
			patch.HydrationFactor = &v
		}
		if flags.Changed("at") {
			raw, _ := flags.GetString("at")
			ts, err := types.ParseTimestamp(raw)
			if err != nil {
				return err
			}
			patch.Timestamp = &ts
		}

		entry, err := app.Store().UpdateManualEntry(args[0], patch)
		if err != nil {
			return fmt.Errorf("ошибка изменения записи: %w", err)
		}

		p.Success("Запись изменена")
		if err := printEntry(p, entry); err != nil {
			return err
		}
		types.Push(cmd.Context(), app, p)
		return nil
	},
}

func init() {
	EditCmd.Flags().StringP("name", "n", "", "название напитка")
	EditCmd.Flags().String("icon", "", "значок")
	EditCmd.Flags().IntP("volume", "v", 0, "объем, мл")
	EditCmd.Flags().IntP("factor", "f", 0, "коэффициент гидратации, %")
	EditCmd.Flags().String("at", "", "время записи")
}
