package payment

import (
	"fmt"
	"time"

	"github.com/BruksfildServices01/booking-engine/internal/config"
)

// New returns the gateway selected by PAYMENT_GATEWAY.
func New(cfg *config.Config) (Gateway, error) {
	p := cfg.Payment

	switch p.Gateway {
	case "stripe":
		return NewStripeGateway(StripeConfig{
			SecretKey:        p.Stripe.SecretKey,
			PublishableKey:   p.Stripe.PublishableKey,
			WebhookSecret:    p.Stripe.WebhookSecret,
			WebhookTolerance: time.Duration(p.Stripe.WebhookToleranceSeconds) * time.Second,
		}), nil
	case "mercadopago":
		return NewMercadoPagoGateway(MercadoPagoConfig{
			AccessToken:     p.MercadoPago.AccessToken,
			PublicKey:       p.MercadoPago.PublicKey,
			WebhookSecret:   p.MercadoPago.WebhookSecret,
			NotificationURL: p.MercadoPago.NotificationURL,
		})
	case "local":
		return NewLocalGateway(p.Local.WebhookSecret), nil
	default:
		return nil, fmt.Errorf("%w: unknown gateway %q", ErrNotConfigured, p.Gateway)
	}
}
