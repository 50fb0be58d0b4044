// Package relay delivers internal notifications (visit reports, order
// notices) to the operations chat through the Telegram Bot API.
//
// Delivery is fire-and-forget by contract: failures are logged and dropped,
// never retried and never surfaced to callers. A circuit breaker keeps a
// degraded Telegram API from stalling request handling.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Notifier is the outbound message channel used by telemetry and checkout.
type Notifier interface {
	Send(ctx context.Context, text string)
}

// Telegram implements Notifier against api.telegram.org.
type Telegram struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[struct{}]
	logger     *slog.Logger
	apiBase    string
	botToken   string
	chatID     string
}

// Config holds the bot credentials. APIBase is overridable for tests and
// defaults to the public Bot API.
type Config struct {
	BotToken string
	ChatID   string
	APIBase  string
}

func NewTelegram(cfg Config, transport http.RoundTripper, logger *slog.Logger) (*Telegram, error) {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		return nil, fmt.Errorf("telegram bot token and chat ID are required")
	}
	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = "https://api.telegram.org"
	}

	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "telegram-relay",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Telegram{
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
		breaker:  breaker,
		logger:   logger,
		apiBase:  apiBase,
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
	}, nil
}

// Send posts one HTML-formatted message. Errors are swallowed after logging.
func (t *Telegram) Send(ctx context.Context, text string) {
	_, err := t.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, t.send(ctx, text)
	})
	if err != nil {
		t.logger.Error("relay delivery failed", slog.String("error", err.Error()))
	}
}

func (t *Telegram) send(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("telegram API status %d", resp.StatusCode)
	}
	return nil
}

// Discard is a Notifier that drops everything. Used when no relay is
// configured and in tests.
type Discard struct{}

func (Discard) Send(context.Context, string) {}
