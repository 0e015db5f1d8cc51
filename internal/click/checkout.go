package click

import (
	"net/url"

	"github.com/shopspring/decimal"
)

const payURL = "https://my.click.uz/services/pay"

// RedirectConfig carries the merchant identity baked into the redirect URL.
type RedirectConfig struct {
	ServiceID      string
	MerchantID     string
	MerchantUserID string
	ReturnURL      string
}

// BuildRedirectURL formats the Click payment page URL for an order. The
// amount travels in major units with two decimals; the order id rides in
// transaction_param and comes back as merchant_trans_id.
func BuildRedirectURL(cfg RedirectConfig, orderID string, amountMinor int64) string {
	amountMajor := decimal.NewFromInt(amountMinor).Shift(-2).StringFixed(2)

	q := url.Values{}
	q.Set("service_id", cfg.ServiceID)
	q.Set("merchant_id", cfg.MerchantID)
	if cfg.MerchantUserID != "" {
		q.Set("merchant_user_id", cfg.MerchantUserID)
	}
	q.Set("transaction_param", orderID)
	q.Set("amount", amountMajor)
	if cfg.ReturnURL != "" {
		q.Set("return_url", cfg.ReturnURL)
	}

	return payURL + "?" + q.Encode()
}
