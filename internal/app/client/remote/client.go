// Package remote клиент удаленного хранилища: авторизация, пакетные операции
// со строками и пресетами, поток изменений.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"hydrosync/internal/app/client/config"
	"hydrosync/internal/domain/hydration"
	"hydrosync/internal/domain/preset"
	"hydrosync/internal/domain/sip"
	"hydrosync/internal/domain/user"
)

var ErrUnauthorized = errors.New("unauthorized")

// StatusError ответ сервера с кодом ошибки
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("ошибка сервера (%d): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("ошибка сервера: статус %d", e.Code)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.Code == http.StatusUnauthorized
}

type Client struct {
	client    *http.Client
	stream    *http.Client
	log       *slog.Logger
	baseURL   string
	userAgent string

	mu    sync.RWMutex
	token string
}

func New(cfg *config.Config, log *slog.Logger) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 10,
	}

	// Определяем протокол
	scheme := "http://"
	if cfg.EnableTLS {
		scheme = "https://"
	}

	return &Client{
		client: &http.Client{Timeout: 30 * time.Second, Transport: transport},
		// поток изменений живет долго, общий таймаут к нему не применяется
		stream:    &http.Client{Transport: transport},
		log:       log.With(slog.String("component", "remote")),
		baseURL:   scheme + cfg.ServerAddress,
		userAgent: "Hydrosync-Client/1.0",
	}
}

// SetToken устанавливает токен аутентификации
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// HealthCheck проверяет доступность сервера
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/health", nil)
	if err != nil {
		return fmt.Errorf("сервер недоступен: %w", err)
	}
	return c.parseResponse(resp, nil)
}

// Register возвращает идентификатор созданного пользователя
func (c *Client) Register(ctx context.Context, login, password string) (string, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/user/register", user.BaseRequest{Login: login, Password: password})
	if err != nil {
		return "", err
	}

	var out struct {
		UserID string `json:"user_id"`
	}
	if err := c.parseResponse(resp, &out); err != nil {
		return "", err
	}
	return out.UserID, nil
}

// Login возвращает токен сессии и идентификатор пользователя; токен сохраняется в клиенте
func (c *Client) Login(ctx context.Context, login, password string) (string, string, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/user/login", user.BaseRequest{Login: login, Password: password})
	if err != nil {
		return "", "", err
	}

	var out struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
	}
	if err := c.parseResponse(resp, &out); err != nil {
		return "", "", err
	}
	if out.Token == "" {
		return "", "", errors.New("сервер не вернул токен")
	}

	c.SetToken(out.Token)
	return out.Token, out.UserID, nil
}

func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/user/logout", nil)
	if err != nil {
		return err
	}
	if err := c.parseResponse(resp, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

type mutationResponse struct {
	Count int `json:"count"`
}

type listSipsResponse struct {
	Rows []hydration.SipRow `json:"rows"`
}

// UpsertSips идемпотентно записывает строки по id
func (c *Client) UpsertSips(ctx context.Context, rows []hydration.SipRow) (int, error) {
	return c.mutate(ctx, "/api/v1/sips/upsert", sip.UpsertRequest{Rows: rows})
}

// DeleteSips удаляет строки по id; отсутствующие id не считаются ошибкой
func (c *Client) DeleteSips(ctx context.Context, ids []string) (int, error) {
	return c.mutate(ctx, "/api/v1/sips/delete", sip.DeleteRequest{IDs: ids})
}

func (c *Client) FetchSips(ctx context.Context) ([]hydration.SipRow, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/sips", nil)
	if err != nil {
		return nil, err
	}
	var out listSipsResponse
	if err := c.parseResponse(resp, &out); err != nil {
		return nil, err
	}
	return out.Rows, nil
}

// History строки за диапазон дат YYYY-MM-DD (UTC)
func (c *Client) History(ctx context.Context, startDate, endDate string) ([]hydration.SipRow, error) {
	q := url.Values{}
	q.Set("start_date", startDate)
	if endDate != "" {
		q.Set("end_date", endDate)
	}

	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/sips/history?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var out listSipsResponse
	if err := c.parseResponse(resp, &out); err != nil {
		return nil, err
	}
	return out.Rows, nil
}

func (c *Client) UpsertPresets(ctx context.Context, rows []hydration.PresetRow) (int, error) {
	return c.mutate(ctx, "/api/v1/presets/upsert", preset.UpsertRequest{Rows: rows})
}

func (c *Client) DeletePresets(ctx context.Context, ids []string) (int, error) {
	return c.mutate(ctx, "/api/v1/presets/delete", preset.DeleteRequest{IDs: ids})
}

func (c *Client) FetchPresets(ctx context.Context) ([]hydration.PresetRow, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/presets", nil)
	if err != nil {
		return nil, err
	}
	var out struct {
		Rows []hydration.PresetRow `json:"rows"`
	}
	if err := c.parseResponse(resp, &out); err != nil {
		return nil, err
	}
	return out.Rows, nil
}

func (c *Client) mutate(ctx context.Context, path string, body any) (int, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return 0, err
	}
	var out mutationResponse
	if err := c.parseResponse(resp, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	// Добавляем заголовки
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	c.log.Debug("Отправка запроса", "method", method, "url", req.URL.String())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	return resp, nil
}

func (c *Client) parseResponse(resp *http.Response, result any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	c.log.Debug("Получен ответ", "status", resp.StatusCode, "size", len(body))

	var envelope struct {
		Status string `json:"status"`
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	_ = json.Unmarshal(body, &envelope)

	if resp.StatusCode >= 400 {
		msg := envelope.Error
		if msg == "" {
			msg = envelope.Detail
		}
		return &StatusError{Code: resp.StatusCode, Message: msg}
	}
	if envelope.Status == "Error" {
		return &StatusError{Code: resp.StatusCode, Message: envelope.Error}
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("ошибка парсинга ответа: %w", err)
		}
	}
	return nil
}
