package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"3000"`
	AppEnv  string `env:"APP_ENV" envDefault:"development"`

	ClickServiceID      string `env:"CLICK_SERVICE_ID"`
	ClickMerchantID     string `env:"CLICK_MERCHANT_ID"`
	ClickMerchantUserID string `env:"CLICK_MERCHANT_USER_ID"`
	ClickSecretKey      string `env:"CLICK_SECRET_KEY"`
	ClickReturnURL      string `env:"CLICK_RETURN_URL"`

	PaymeMerchantID   string `env:"PAYME_MERCHANT_ID"`
	PaymeKey          string `env:"PAYME_KEY"`
	CallbackReturnURL string `env:"CALLBACK_RETURN_URL"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
}

// LoadConfig reads .env (when present) and parses the environment into a
// Config.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
