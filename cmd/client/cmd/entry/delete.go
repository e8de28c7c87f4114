package entry

import (
	"fmt"

	"github.com/spf13/cobra"

	"hydrosync/cmd/client/cmd/types"
)

var DeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Удалить запись",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.AppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		p := types.PrinterFromContext(cmd.Context())

		if !app.Store().DeleteManualEntry(args[0]) {
			return fmt.Errorf("запись %s не найдена", args[0])
		}

		p.Success("Запись %s удалена", args[0])
		if err := p.Encode(map[string]string{"deleted": args[0]}); err != nil {
			return err
		}
		types.Push(cmd.Context(), app, p)
		return nil
	},
}
