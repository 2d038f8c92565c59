package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
	"github.com/stripe/stripe-go/v79/webhook"
)

const StripeSignatureHeader = "Stripe-Signature"

type StripeConfig struct {
	SecretKey        string
	PublishableKey   string
	WebhookSecret    string
	WebhookTolerance time.Duration
}

// StripeGateway collects deposits with PaymentIntents. The intent id is
// the order id.
type StripeGateway struct {
	cfg     StripeConfig
	intents paymentintent.Client
}

func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	if cfg.WebhookTolerance <= 0 {
		cfg.WebhookTolerance = webhook.DefaultTolerance
	}
	return &StripeGateway{
		cfg: cfg,
		intents: paymentintent.Client{
			B:   stripe.GetBackend(stripe.APIBackend),
			Key: cfg.SecretKey,
		},
	}
}

func (g *StripeGateway) Name() string      { return "stripe" }
func (g *StripeGateway) PublicKey() string { return g.cfg.PublishableKey }

func (g *StripeGateway) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	if strings.TrimSpace(g.cfg.SecretKey) == "" {
		return Order{}, ErrNotConfigured
	}

	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(req.Amount),
		Currency:    stripe.String(strings.ToLower(req.Currency)),
		Description: stripe.String(req.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	// safe retries for the same hold
	params.IdempotencyKey = stripe.String(req.Reference)
	params.AddMetadata("reference", req.Reference)
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.CustomerEmail != "" {
		params.ReceiptEmail = stripe.String(req.CustomerEmail)
	}

	pi, err := g.intents.New(params)
	if err != nil {
		return Order{}, wrapGateway(g.Name(), err)
	}

	return Order{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (g *StripeGateway) ParseCallback(_ context.Context, body []byte, header http.Header) (Event, error) {
	if strings.TrimSpace(g.cfg.WebhookSecret) == "" {
		return Event{}, ErrNotConfigured
	}

	sig := header.Get(StripeSignatureHeader)
	if strings.TrimSpace(sig) == "" {
		return Event{}, ErrInvalidSignature
	}

	// only the intent id, charge and method are read, and those are stable
	// across API versions
	evt, err := webhook.ConstructEventWithOptions(body, sig, g.cfg.WebhookSecret, webhook.ConstructEventOptions{
		Tolerance:                g.cfg.WebhookTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isStripeSignatureErr(err) {
			return Event{}, ErrInvalidSignature
		}
		return Event{}, ErrMalformedPayload
	}

	evtType := string(evt.Type)
	out := Event{Type: evtType, Kind: EventIgnored}

	switch evtType {
	case "payment_intent.succeeded", "payment_intent.amount_capturable_updated":
		out.Kind = EventSucceeded
	case "payment_intent.payment_failed":
		out.Kind = EventFailed
	default:
		return out, nil
	}

	if evt.Data == nil {
		return Event{}, ErrMalformedPayload
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil || pi.ID == "" {
		return Event{}, ErrMalformedPayload
	}

	out.OrderID = pi.ID
	if pi.LatestCharge != nil {
		out.PaymentID = pi.LatestCharge.ID
	}
	if pi.PaymentMethod != nil && pi.PaymentMethod.Type != "" {
		out.Method = string(pi.PaymentMethod.Type)
	} else if len(pi.PaymentMethodTypes) > 0 {
		out.Method = pi.PaymentMethodTypes[0]
	}
	return out, nil
}

func isStripeSignatureErr(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}
