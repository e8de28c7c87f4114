// cmd/client/cmd/init.go
package cmd

import (
	"hydrosync/cmd/client/cmd/auth"
	"hydrosync/cmd/client/cmd/device"
	"hydrosync/cmd/client/cmd/entry"
	"hydrosync/cmd/client/cmd/history"
	"hydrosync/cmd/client/cmd/preset"
	"hydrosync/cmd/client/cmd/sip"
	"hydrosync/cmd/client/cmd/sync"
)

func init() {
	// Добавляем команды аутентификации
	rootCmd.AddCommand(auth.AuthCmd)
	auth.AuthCmd.AddCommand(auth.RegisterCmd)
	auth.AuthCmd.AddCommand(auth.LoginCmd)
	auth.AuthCmd.AddCommand(auth.LogoutCmd)

	rootCmd.AddCommand(device.DeviceCmd)
	device.DeviceCmd.AddCommand(device.ConnectCmd)

	// Ручные записи и глотки
	rootCmd.AddCommand(entry.EntryCmd)
	entry.EntryCmd.AddCommand(entry.AddCmd)
	entry.EntryCmd.AddCommand(entry.EditCmd)
	entry.EntryCmd.AddCommand(entry.DeleteCmd)
	entry.EntryCmd.AddCommand(entry.ListCmd)

	rootCmd.AddCommand(sip.SipCmd)
	sip.SipCmd.AddCommand(sip.ListCmd)
	sip.SipCmd.AddCommand(sip.DeleteCmd)

	rootCmd.AddCommand(preset.PresetCmd)
	preset.PresetCmd.AddCommand(preset.AddCmd)
	preset.PresetCmd.AddCommand(preset.EditCmd)
	preset.PresetCmd.AddCommand(preset.DeleteCmd)
	preset.PresetCmd.AddCommand(preset.ListCmd)
	preset.PresetCmd.AddCommand(preset.UseCmd)

	rootCmd.AddCommand(sync.SyncCmd)
	rootCmd.AddCommand(history.HistoryCmd)
	rootCmd.AddCommand(watchCmd)
}
