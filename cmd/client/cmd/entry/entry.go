// Package entry команды ручных записей о напитках
package entry

import (
	"strconv"

	"github.com/spf13/cobra"

	"hydrosync/cmd/client/cmd/types"
	"hydrosync/internal/domain/hydration"
)

// EntryCmd - родительская команда ручных записей
var EntryCmd = &cobra.Command{
	Use:     "entry",
	Aliases: []string{"drink"},
	Short:   "Ручные записи о напитках",
	Long: `Добавление, изменение, удаление и просмотр ручных записей.

Засчитанный объем записи равен объему, умноженному на коэффициент
гидратации в процентах (кофе - около 90, вода - 100).`,
}

func entryRow(e hydration.ManualEntry) []string {
	synced := "-"
	if e.IsSyncedCloud {
		synced = "✓"
	}
	return []string{
		e.ID,
		types.FormatTimestamp(e.Timestamp),
		e.Icon + " " + e.Name,
		strconv.Itoa(e.VolumeMl),
		strconv.Itoa(e.HydrationFactor) + "%",
		strconv.Itoa(e.CalculatedVolumeMl),
		synced,
	}
}

var entryHeader = []string{"ID", "Время", "Напиток", "Объем", "Фактор", "Засчитано", "Облако"}

func printEntry(p *types.Printer, e hydration.ManualEntry) error {
	if p.Structured() {
		return p.Encode(e)
	}
	p.Table(entryHeader, [][]string{entryRow(e)})
	return nil
}
