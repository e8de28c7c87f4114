// Package realtime раздает уведомления об изменениях строк подписчикам-владельцам.
package realtime

import (
	"sync"

	"golang.org/x/exp/slog"

	"hydrosync/internal/domain/hydration"
)

const DefaultBuffer = 64

// Notification изменение строки вместе с владельцем
type Notification struct {
	UserID string `json:"user_id"`
	hydration.Change
}

type Subscription struct {
	C      <-chan hydration.Change
	ch     chan hydration.Change
	userID string
	hub    *Hub
	once   sync.Once
}

// Close отписывает подписчика; повторный вызов безопасен
func (s *Subscription) Close() {
	s.hub.remove(s)
}

type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
	log    *slog.Logger
}

func NewHub(buffer int, log *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
		log:    log.With(slog.String("component", "realtime_hub")),
	}
}

// Subscribe подписывает на изменения строк пользователя
func (h *Hub) Subscribe(userID string) *Subscription {
	ch := make(chan hydration.Change, h.buffer)
	s := &Subscription{C: ch, ch: ch, userID: userID, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*Subscription]struct{})
	}
	h.subs[userID][s] = struct{}{}
	return s
}

// Publish доставляет изменение подписчикам владельца без блокировки.
// Отстающий подписчик отключается: пропущенное удаление иначе потерялось бы молча.
func (h *Hub) Publish(n Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs[n.UserID] {
		select {
		case s.ch <- n.Change:
		default:
			h.log.Warn("подписчик не успевает, отключаем", "user_id", n.UserID)
			h.removeLocked(s)
		}
	}
}

// Subscribers число активных подписок пользователя
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(s)
}

func (h *Hub) removeLocked(s *Subscription) {
	s.once.Do(func() {
		delete(h.subs[s.userID], s)
		if len(h.subs[s.userID]) == 0 {
			delete(h.subs, s.userID)
		}
		close(s.ch)
	})
}
