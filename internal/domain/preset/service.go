package preset

import (
	"context"
	"fmt"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zconst"
	"golang.org/x/exp/slog"

	"hydrosync/internal/domain/hydration"
)

var presetSchema = z.Struct(z.Shape{
	"ID":              z.String().Min(1).Required(z.Message("id is required")),
	"Name":            z.String().Min(1).Max(100).Required(z.Message("name is required")),
	"VolumeMl":        z.Int().GT(0, z.Message("volume_ml must be positive")).Required(z.Message("volume_ml is required")),
	"HydrationFactor": z.Int().GTE(0, z.Message("hydration_factor must not be negative")),
	"Icon":            z.String().Max(64),
})

type Servicer interface {
	Upsert(ctx context.Context, userID string, rows []hydration.PresetRow) (int, error)
	Delete(ctx context.Context, userID string, ids []string) (int, error)
	List(ctx context.Context, userID string) ([]hydration.PresetRow, error)
}

type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With(slog.String("component", "preset_service")),
	}
}

func (s *Service) Upsert(ctx context.Context, userID string, rows []hydration.PresetRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	owned := make([]hydration.PresetRow, 0, len(rows))
	for _, r := range rows {
		if r.UserID != "" && r.UserID != userID {
			return 0, fmt.Errorf("%w: %s", ErrForeignPreset, r.ID)
		}
		r.UserID = userID
		if issues := presetSchema.Validate(&r); len(issues) > 0 {
			return 0, fmt.Errorf("%w %q: %s", ErrInvalidPreset, r.ID, issues[zconst.ISSUE_KEY_FIRST][0].Message)
		}
		owned = append(owned, r)
	}

	n, err := s.repo.Upsert(ctx, owned)
	if err != nil {
		return 0, fmt.Errorf("upsert presets: %w", err)
	}
	return n, nil
}

func (s *Service) Delete(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.repo.Delete(ctx, userID, ids)
	if err != nil {
		return 0, fmt.Errorf("delete presets: %w", err)
	}
	return n, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]hydration.PresetRow, error) {
	rows, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	return rows, nil
}
