// Package sip команды глотков с бутылки
package sip

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"hydrosync/cmd/client/cmd/types"
	"hydrosync/internal/domain/hydration"
)

// SipCmd - родительская команда глотков
var SipCmd = &cobra.Command{
	Use:   "sip",
	Short: "Глотки, записанные бутылкой",
}

var (
	listDay string
	listAll bool
)

var ListCmd = &cobra.Command{
	Use:         "list",
	Aliases:     []string{"ls"},
	Short:       "Глотки за день",
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

		sips := []hydration.BottleSip{}
		for _, s := range app.Store().BottleSips() {
			if listAll || (s.Timestamp >= from && s.Timestamp < to) {
				sips = append(sips, s)
			}
		}

		if p.Structured() {
			return p.Encode(sips)
		}
		if len(sips) == 0 {
			p.Println("Глотков нет")
			return nil
		}

		rows := make([][]string, 0, len(sips))
		total := 0
		for _, s := range sips {
			rows = append(rows, []string{
				strconv.FormatInt(s.Timestamp, 10),
				types.FormatTimestamp(s.Timestamp),
				strconv.Itoa(s.VolumeMl),
				mark(s.IsSyncedCloud),
				mark(s.IsSyncedGarmin),
			})
			total += s.VolumeMl
		}
		p.Table([]string{"Метка", "Время", "Объем", "Облако", "Garmin"}, rows)
		p.Printf("\nВсего глотков: %d, объем: %d мл\n", len(sips), total)
		return nil
	},
}

var DeleteCmd = &cobra.Command{
	Use:     "delete <timestamp>",
	Aliases: []string{"rm"},
	Short:   "Удалить глоток по метке времени (мс)",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		p := types.PrinterFromContext(cmd.Context())

		ts, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("неверная метка времени %q", args[0])
		}
		if !app.Store().DeleteBottleSip(ts) {
			return fmt.Errorf("глоток %d не найден", ts)
		}

		p.Success("Глоток %s удален", types.FormatTimestamp(ts))
		if err := p.Encode(map[string]int64{"deleted": ts}); err != nil {
			return err
		}
		types.Push(cmd.Context(), app, p)
		return nil
	},
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "-"
}

func init() {
	ListCmd.Flags().StringVarP(&listDay, "date", "d", "", "день YYYY-MM-DD (по умолчанию сегодня)")
	ListCmd.Flags().BoolVarP(&listAll, "all", "a", false, "все глотки")
}
