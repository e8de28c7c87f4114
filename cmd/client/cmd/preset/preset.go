// Package preset команды пресетов напитков
package preset

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"hydrosync/cmd/client/cmd/types"
	"hydrosync/internal/app/client/eventstore"
	"hydrosync/internal/domain/hydration"
)

// PresetCmd - родительская команда пресетов
var PresetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Пресеты напитков",
	Long:  `Сохраненные напитки для быстрого добавления ручных записей.`,
}

var header = []string{"ID", "Напиток", "Объем", "Фактор", "Облако"}

func row(p hydration.Preset) []string {
	synced := "-"
	if p.IsSyncedCloud {
		synced = "✓"
	}
	return []string{p.ID, p.Icon + " " + p.Name, strconv.Itoa(p.VolumeMl), strconv.Itoa(p.HydrationFactor) + "%", synced}
}

func printPreset(p *types.Printer, preset hydration.Preset) error {
	if p.Structured() {
		return p.Encode(preset)
	}
	p.Table(header, [][]string{row(preset)})
	return nil
}

var AddCmd = &cobra.Command{
	Use:   "add",
	Short: "Добавить пресет",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		p := types.PrinterFromContext(cmd.Context())
		flags := cmd.Flags()

		name, _ := flags.GetString("name")
		icon, _ := flags.GetString("icon")
		volume, _ := flags.GetInt("volume")
		factor, _ := flags.GetInt("factor")

		preset, err := app.Store().SavePreset(eventstore.PresetInput{
			Name:            name,
			Icon:            icon,
			VolumeMl:        volume,
			HydrationFactor: factor,
		})
		if err != nil {
			return fmt.Errorf("ошибка сохранения пресета: %w", err)
		}

		p.Success("Пресет %s сохранен", preset.Name)
		if err := printPreset(p, preset); err != nil {
			return err
		}
		types.Push(cmd.Context(), app, p)
		return nil
	},
}

var EditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Изменить пресет",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		p := types.PrinterFromContext(cmd.Context())
		flags := cmd.Flags()

		var patch eventstore.PresetPatch
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

		preset, err := app.Store().UpdatePreset(args[0], patch)
		if err != nil {
			return fmt.Errorf("ошибка изменения пресета: %w", err)
		}

		p.Success("Пресет изменен")
		if err := printPreset(p, preset); err != nil {
			return err
		}
		types.Push(cmd.Context(), app, p)
		return nil
	},
}

var DeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Удалить пресет",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		p := types.PrinterFromContext(cmd.Context())

		if !app.Store().DeletePreset(args[0]) {
			return fmt.Errorf("пресет %s не найден", args[0])
		}
		p.Success("Пресет %s удален", args[0])
		if err := p.Encode(map[string]string{"deleted": args[0]}); err != nil {
			return err
		}
		types.Push(cmd.Context(), app, p)
		return nil
	},
}

var ListCmd = &cobra.Command{
	Use:         "list",
	Aliases:     []string{"ls"},
	Short:       "Список пресетов",
	Annotations: types.ReadOnly(),
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		p := types.PrinterFromContext(cmd.Context())

		presets := app.Store().Presets()
		if p.Structured() {
			if presets == nil {
				presets = []hydration.Preset{}
			}
			return p.Encode(presets)
		}
		if len(presets) == 0 {
			p.Println("Пресетов нет")
			return nil
		}

		rows := make([][]string, 0, len(presets))
		for _, preset := range presets {
			rows = append(rows, row(preset))
		}
		p.Table(header, rows)
		return nil
	},
}

var useAt string

// UseCmd добавляет ручную запись по пресету
var UseCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Записать напиток по пресету",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		p := types.PrinterFromContext(cmd.Context())

		var preset *hydration.Preset
		for _, candidate := range app.Store().Presets() {
			if candidate.ID == args[0] {
				preset = &candidate
				break
			}
		}
		if preset == nil {
			return fmt.Errorf("пресет %s не найден", args[0])
		}

		ts, err := types.ParseTimestamp(useAt)
		if err != nil {
			return err
		}

		entry, err := app.Store().RecordManualEntry(eventstore.ManualInput{
			Name:            preset.Name,
			Icon:            preset.Icon,
			VolumeMl:        preset.VolumeMl,
			HydrationFactor: preset.HydrationFactor,
			Timestamp:       ts,
		})
		if err != nil {
			return fmt.Errorf("ошибка добавления записи: %w", err)
		}

		p.Success("%s: засчитано %d мл", entry.Name, entry.CalculatedVolumeMl)
		if err := p.Encode(entry); err != nil {
			return err
		}
		types.Push(cmd.Context(), app, p)
		return nil
	},
}

func init() {
	AddCmd.Flags().StringP("name", "n", "", "название напитка")
	AddCmd.Flags().String("icon", "", "значок")
	AddCmd.Flags().IntP("volume", "v", 0, "объем, мл")
	AddCmd.Flags().IntP("factor", "f", 100, "коэффициент гидратации, %")
	_ = AddCmd.MarkFlagRequired("name")
	_ = AddCmd.MarkFlagRequired("volume")

	EditCmd.Flags().StringP("name", "n", "", "название напитка")
	EditCmd.Flags().String("icon", "", "значок")
	EditCmd.Flags().IntP("volume", "v", 0, "объем, мл")
	EditCmd.Flags().IntP("factor", "f", 0, "коэффициент гидратации, %")

	UseCmd.Flags().StringVar(&useAt, "at", "", "время записи (по умолчанию сейчас)")
}
