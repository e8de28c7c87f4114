package entry

import (
	"time"

	"github.com/spf13/cobra"

	"hydrosync/cmd/client/cmd/types"
	"hydrosync/internal/domain/hydration"
)

var (
	listDay string
	listAll bool
)

var ListCmd = &cobra.Command{
	Use:         "list",
	Aliases:     []string{"ls"},
	Short:       "Список записей за день",
	Annotations: types.ReadOnly(),
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		p := types.PrinterFromContext(cmd.Context())

		from, to, err := types.DayRange(listDay, time.Now())
		if err != nil {
			return err
		}

		var entries []hydration.ManualEntry
		for _, e := range app.Store().ManualEntries() {
			if listAll || (e.Timestamp >= from && e.Timestamp < to) {
				entries = append(entries, e)
			}
		}

		if p.Structured() {
			if entries == nil {
				entries = []hydration.ManualEntry{}
			}
			return p.Encode(entries)
		}

		if len(entries) == 0 {
			p.Println("Записи не найдены")
			return nil
		}

		rows := make([][]string, 0, len(entries))
		total := 0
		for _, e := range entries {
			rows = append(rows, entryRow(e))
			total += e.CalculatedVolumeMl
		}
		p.Table(entryHeader, rows)
		p.Printf("\nВсего записей: %d, засчитано: %d мл\n", len(entries), total)
		return nil
	},
}

func init() {
	ListCmd.Flags().StringVarP(&listDay, "date", "d", "", "день YYYY-MM-DD (по умолчанию сегодня)")
	ListCmd.Flags().BoolVarP(&listAll, "all", "a", false, "все записи")
}
