package device

import (
	"hydrosync/cmd/client/cmd/types"
	"hydrosync/internal/app/client/eventstore"
)

// newSipReporter печатает глотки, добавленные после seen
func newSipReporter(p *types.Printer, seen int) eventstore.Listener {
	return func(snap eventstore.Snapshot) {
		// слияние или удаление могли сократить коллекцию
		if len(snap.BottleSips) < seen {
			seen = len(snap.BottleSips)
			return
		}
		for _, sip := range snap.BottleSips[seen:] {
			p.Printf("%s  +%d мл\n", types.FormatTimestamp(sip.Timestamp), sip.VolumeMl)
		}
		seen = len(snap.BottleSips)
	}
}
