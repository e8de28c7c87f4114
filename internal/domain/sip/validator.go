package sip

import (
	"fmt"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zconst"

	"hydrosync/internal/domain/hydration"
)

var rowSchema = z.Struct(z.Shape{
	"ID":        z.String().Min(1, z.Message("id is required")).Max(200, z.Message("id is too long")).Required(z.Message("id is required")),
	"Timestamp": z.Int64().GT(0, z.Message("timestamp must be positive")).Required(z.Message("timestamp is required")),
	"VolumeMl":  z.Int().GTE(0, z.Message("volume_ml must not be negative")),
	"Name":      z.String().Max(100, z.Message("name is too long")),
	"Icon":      z.String().Max(64, z.Message("icon is too long")),
})

// validateRow проверяет форму строки и согласованность id глотка с владельцем
func validateRow(userID string, r *hydration.SipRow) error {
	if issues := rowSchema.Validate(r); len(issues) > 0 {
		return fmt.Errorf("%w %q: %s", ErrInvalidRow, r.ID, issues[zconst.ISSUE_KEY_FIRST][0].Message)
	}
	if r.Source != hydration.SourceBottle && r.Source != hydration.SourceManual {
		return fmt.Errorf("%w %q: unknown source %q", ErrInvalidRow, r.ID, r.Source)
	}
	if r.HydrationFactor != nil && *r.HydrationFactor < 0 {
		return fmt.Errorf("%w %q: negative hydration factor", ErrInvalidRow, r.ID)
	}
	if r.Source == hydration.SourceBottle && r.ID != hydration.BottleRemoteID(userID, r.Timestamp) {
		return fmt.Errorf("%w %q: bottle id does not match owner and timestamp", ErrInvalidRow, r.ID)
	}
	return nil
}
