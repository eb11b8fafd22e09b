package kiosk

import (
	"github.com/shopspring/decimal"

	"github.com/Proton-105/ticket-machine/internal/i18n"
	"github.com/Proton-105/ticket-machine/internal/machine"
)

// Renderer turns outcomes into customer text.
type Renderer struct {
	tr       i18n.Translator
	price    decimal.Decimal
	currency string
}

// NewRenderer creates a renderer. A nil translator falls back to Outcome.Message.
func NewRenderer(tr i18n.Translator, price decimal.Decimal, currency string) *Renderer {
	return &Renderer{tr: tr, price: price, currency: currency}
}

// Render returns the localized text for out.
func (r *Renderer) Render(out machine.Outcome) string {
	if r == nil || r.tr == nil || out.Code == "" {
		return out.Message()
	}

	key := "outcome." + string(out.Code)
	text := r.tr.Tf(key, map[string]string{
		"amount":   out.Amount.String(),
		"balance":  out.Balance.String(),
		"change":   out.Change.String(),
		"price":    r.price.String(),
		"currency": r.currency,
	})
	if text == key {
		return out.Message()
	}

	return text
}
