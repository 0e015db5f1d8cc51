package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"paygate-be/internal/logger"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const telegramBaseURL = "https://api.telegram.org"

var ErrNotConfigured = errors.New("telegram notifier not configured")

type telegramNotifier struct {
	token   string
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker
}

// NewTelegramNotifier sends payment confirmations through the Telegram bot
// API. An empty token yields a notifier whose sends always fail, which keeps
// orders un-notified until the bot is configured.
func NewTelegramNotifier(token string) Notifier {
	if token == "" {
		logger.L().Warn("Telegram bot token is empty, notifications disabled")
	}

	client := resty.New().
		SetBaseURL(telegramBaseURL).
		SetTimeout(15 * time.Second)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "telegram",
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.L().Info("notifier circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &telegramNotifier{token: token, client: client, breaker: breaker}
}

func (t *telegramNotifier) Send(ctx context.Context, chatID, text string) error {
	if t.token == "" || chatID == "" || text == "" {
		return ErrNotConfigured
	}

	_, err := t.breaker.Execute(func() (interface{}, error) {
		var result struct {
			OK          bool   `json:"ok"`
			Description string `json:"description"`
		}
		resp, err := t.client.R().
			SetContext(ctx).
			SetBody(map[string]interface{}{
				"chat_id":                  chatID,
				"text":                     text,
				"parse_mode":               "HTML",
				"disable_web_page_preview": true,
			}).
			SetResult(&result).
			SetError(&result).
			Post("/bot" + t.token + "/sendMessage")
		if err != nil {
			return nil, err
		}
		if !result.OK {
			return nil, fmt.Errorf("telegram: %s (http %d)", result.Description, resp.StatusCode())
		}
		return nil, nil
	})
	return err
}
