package sip

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"hydrosync/internal/domain/hydration"
)

const (
	MaxBatch   = 500
	dateLayout = "2006-01-02"
)

type Servicer interface {
	Upsert(ctx context.Context, userID string, rows []hydration.SipRow) (int, error)
	Delete(ctx context.Context, userID string, ids []string) (int, error)
	List(ctx context.Context, userID string) ([]hydration.SipRow, error)
	History(ctx context.Context, userID, startDate, endDate string) ([]hydration.SipRow, error)
	MarkGarminSynced(ctx context.Context, id string) (hydration.SipRow, error)
}

type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With(slog.String("component", "sip_service")),
	}
}

// Upsert идемпотентно сохраняет пакет строк по id. Владелец берется из сессии.
func (s *Service) Upsert(ctx context.Context, userID string, rows []hydration.SipRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(rows) > MaxBatch {
		return 0, fmt.Errorf("%w: %d > %d", ErrBatchTooBig, len(rows), MaxBatch)
	}

	owned := make([]hydration.SipRow, 0, len(rows))
	for _, r := range rows {
		if r.UserID != "" && r.UserID != userID {
			return 0, fmt.Errorf("%w: %s", ErrForeignRow, r.ID)
		}
		r.UserID = userID
		if err := validateRow(userID, &r); err != nil {
			return 0, err
		}
		owned = append(owned, r)
	}

	n, err := s.repo.Upsert(ctx, owned)
	if err != nil {
		return 0, fmt.Errorf("upsert sips: %w", err)
	}
	s.log.Debug("sips upserted", "user_id", userID, "count", n)
	return n, nil
}

// Delete удаляет строки пользователя; отсутствующие id не считаются ошибкой
func (s *Service) Delete(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if len(ids) > MaxBatch {
		return 0, fmt.Errorf("%w: %d > %d", ErrBatchTooBig, len(ids), MaxBatch)
	}

	n, err := s.repo.Delete(ctx, userID, ids)
	if err != nil {
		return 0, fmt.Errorf("delete sips: %w", err)
	}
	s.log.Debug("sips deleted", "user_id", userID, "requested", len(ids), "deleted", n)
	return n, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]hydration.SipRow, error) {
	rows, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sips: %w", err)
	}
	return rows, nil
}

// History возвращает строки с начала startDate до конца endDate (UTC, YYYY-MM-DD).
// Пустой endDate равен startDate.
func (s *Service) History(ctx context.Context, userID, startDate, endDate string) ([]hydration.SipRow, error) {
	from, to, err := ParseRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.Range(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("sip history: %w", err)
	}
	return rows, nil
}

// MarkGarminSynced отмечает строку переданной во внешнюю систему
func (s *Service) MarkGarminSynced(ctx context.Context, id string) (hydration.SipRow, error) {
	row, err := s.repo.MarkGarminSynced(ctx, id)
	if err != nil {
		return hydration.SipRow{}, fmt.Errorf("mark garmin synced: %w", err)
	}
	s.log.Info("sip marked garmin synced", "id", id, "user_id", row.UserID)
	return row, nil
}

// ParseRange переводит даты в полуинтервал миллисекунд [from, to]
func ParseRange(startDate, endDate string) (int64, int64, error) {
	if startDate == "" {
		return 0, 0, fmt.Errorf("%w: missing start_date (YYYY-MM-DD)", ErrInvalidRange)
	}
	if endDate == "" {
		endDate = startDate
	}

	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: start_date: use YYYY-MM-DD", ErrInvalidRange)
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: end_date: use YYYY-MM-DD", ErrInvalidRange)
	}
	if end.Before(start) {
		return 0, 0, fmt.Errorf("%w: end_date before start_date", ErrInvalidRange)
	}

	return start.UnixMilli(), end.AddDate(0, 0, 1).UnixMilli() - 1, nil
}
