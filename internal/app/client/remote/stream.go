package remote

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"hydrosync/internal/domain/hydration"
)

// eventChange имя события изменения строки; прочие события (ping) только подтверждают соединение
const eventChange = "change"

// StreamHandler обработчики событий потока изменений
type StreamHandler struct {
	// OnReady вызывается один раз, когда сервер подтвердил подписку
	OnReady  func()
	OnChange func(hydration.Change)
}

// Subscribe держит SSE-подписку до отмены ctx или обрыва соединения.
// Возвращает nil только при отмене ctx.
func (c *Client) Subscribe(ctx context.Context, h StreamHandler) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/sips/changes", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("подписка: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode}
	}

	ready := false
	err = readEvents(resp.Body, func(event string, data []byte) {
		if !ready {
			ready = true
			if h.OnReady != nil {
				h.OnReady()
			}
		}
		if event != eventChange || h.OnChange == nil {
			return
		}

		var change hydration.Change
		if err := json.Unmarshal(data, &change); err != nil {
			c.log.Warn("некорректное событие изменения", "error", err)
			return
		}
		h.OnChange(change)
	})
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("поток изменений: %w", err)
	}
	return fmt.Errorf("поток изменений закрыт сервером")
}

// readEvents разбирает text/event-stream: поля event и data, событие завершается пустой строкой
func readEvents(r io.Reader, fn func(event string, data []byte)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		event string
		data  strings.Builder
	)
	flush := func() {
		if data.Len() == 0 {
			event = ""
			return
		}
		name := event
		if name == "" {
			name = "message"
		}
		fn(name, []byte(data.String()))
		event = ""
		data.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			flush()
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			event = value
		case "data":
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(value)
		}
	}
	return scanner.Err()
}
