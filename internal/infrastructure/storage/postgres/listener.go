package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"hydrosync/internal/domain/realtime"
)

// Publisher получатель уведомлений (realtime.Hub)
type Publisher interface {
	Publish(n realtime.Notification)
}

// Listener держит отдельное соединение с LISTEN и передает уведомления в Publisher.
// Любой писатель в sips, включая служебный вызов внешней синхронизации, доходит до подписчиков.
type Listener struct {
	pool  *pgxpool.Pool
	pub   Publisher
	log   *slog.Logger
	retry time.Duration
}

func NewListener(pool *pgxpool.Pool, pub Publisher, log *slog.Logger) *Listener {
	return &Listener{
		pool:  pool,
		pub:   pub,
		log:   log.With(slog.String("component", "pg_listener")),
		retry: time.Second,
	}
}

// Run слушает канал до отмены ctx, переподключаясь при обрыве соединения
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		l.log.Error("listener stopped, reconnecting", "error", err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.retry):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+ChangesChannel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	l.log.Info("listening for sip changes", "channel", ChangesChannel)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}

		msg, err := DecodeNotification([]byte(n.Payload))
		if err != nil {
			l.log.Warn("bad notification payload", "error", err)
			continue
		}
		l.pub.Publish(msg)
	}
}

// DecodeNotification разбирает полезную нагрузку pg_notify
func DecodeNotification(payload []byte) (realtime.Notification, error) {
	var n realtime.Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return n, err
	}
	if n.UserID == "" || n.ID == "" || n.Type == "" {
		return n, errors.New("incomplete notification")
	}
	return n, nil
}
