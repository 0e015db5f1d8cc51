package payme

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

const checkoutOrigin = "https://checkout.paycom.uz"

// CheckoutParams describes one Payme checkout link. Amount is in minor
// units; the checkout page expects them as-is.
type CheckoutParams struct {
	MerchantID  string
	OrderID     string
	Amount      int64
	Lang        string
	CallbackURL string
	// CallbackTimeoutMs defaults to 15000 when zero and a callback URL is set.
	CallbackTimeoutMs int
	CurrencyISO       string
	Description       string
	DetailBase64      string
}

// BuildCheckoutURL formats the classic Payme checkout link: the parameters
// are joined with semicolons, base64-encoded, and appended to the checkout
// origin.
func BuildCheckoutURL(p CheckoutParams) string {
	lang := p.Lang
	parts := []string{
		"m=" + p.MerchantID,
		"ac.order_id=" + p.OrderID,
		fmt.Sprintf("a=%d", p.Amount),
	}
	if lang != "" {
		parts = append(parts, "l="+lang)
	}
	if p.CallbackURL != "" {
		parts = append(parts, "c="+url.QueryEscape(p.CallbackURL))
		timeout := p.CallbackTimeoutMs
		if timeout == 0 {
			timeout = 15000
		}
		parts = append(parts, fmt.Sprintf("ct=%d", timeout))
	}
	if p.CurrencyISO != "" {
		parts = append(parts, "cr="+p.CurrencyISO)
	}
	if p.Description != "" {
		parts = append(parts, fmt.Sprintf("description[%s]=%s", lang, url.QueryEscape(p.Description)))
	}
	if p.DetailBase64 != "" {
		parts = append(parts, "detail="+p.DetailBase64)
	}

	encoded := base64.StdEncoding.EncodeToString([]byte(strings.Join(parts, ";")))
	return checkoutOrigin + "/" + encoded
}
