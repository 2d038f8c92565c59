package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	mppayment "github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
)

type MercadoPagoConfig struct {
	AccessToken     string
	PublicKey       string
	WebhookSecret   string
	NotificationURL string
}

type preferenceCreator interface {
	Create(ctx context.Context, request preference.Request) (*preference.Response, error)
}

type paymentFetcher interface {
	Get(ctx context.Context, id int) (*mppayment.Response, error)
}

// MercadoPagoGateway creates a checkout preference per hold. The order id
// is our own reference, sent as external_reference and read back from the
// payment on callback.
type MercadoPagoGateway struct {
	cfg         MercadoPagoConfig
	preferences preferenceCreator
	payments    paymentFetcher
}

func NewMercadoPagoGateway(cfg MercadoPagoConfig) (*MercadoPagoGateway, error) {
	sdkCfg, err := mpconfig.New(cfg.AccessToken)
	if err != nil {
		return nil, wrapGateway("mercadopago", err)
	}
	return &MercadoPagoGateway{
		cfg:         cfg,
		preferences: preference.NewClient(sdkCfg),
		payments:    mppayment.NewClient(sdkCfg),
	}, nil
}

func (g *MercadoPagoGateway) Name() string      { return "mercadopago" }
func (g *MercadoPagoGateway) PublicKey() string { return g.cfg.PublicKey }

func (g *MercadoPagoGateway) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	ref := req.Reference
	if ref == "" {
		ref = uuid.NewString()
	}

	metadata := make(map[string]any, len(req.Metadata))
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	pref, err := g.preferences.Create(ctx, preference.Request{
		Items: []preference.ItemRequest{
			{
				Title:      req.Description,
				Quantity:   1,
				UnitPrice:  float64(req.Amount) / 100,
				CurrencyID: strings.ToUpper(req.Currency),
			},
		},
		ExternalReference: ref,
		NotificationURL:   g.cfg.NotificationURL,
		Metadata:          metadata,
	})
	if err != nil {
		return Order{}, wrapGateway(g.Name(), err)
	}

	return Order{ID: ref, CheckoutURL: pref.InitPoint}, nil
}

type mpNotification struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
}

// ParseCallback verifies the x-signature header, then fetches the payment
// because notifications only carry its id.
func (g *MercadoPagoGateway) ParseCallback(ctx context.Context, body []byte, header http.Header) (Event, error) {
	if g.cfg.WebhookSecret == "" {
		return Event{}, ErrNotConfigured
	}

	var n mpNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return Event{}, ErrMalformedPayload
	}
	dataID := strings.Trim(string(n.Data.ID), `"`)

	if !verifyMercadoPagoSignature(g.cfg.WebhookSecret, header, dataID) {
		return Event{}, ErrInvalidSignature
	}

	out := Event{Type: n.Type, Kind: EventIgnored}
	if n.Type != "payment" || dataID == "" {
		return out, nil
	}

	id, err := strconv.Atoi(dataID)
	if err != nil {
		return Event{}, ErrMalformedPayload
	}

	p, err := g.payments.Get(ctx, id)
	if err != nil {
		return Event{}, wrapGateway(g.Name(), err)
	}

	out.OrderID = p.ExternalReference
	out.PaymentID = strconv.Itoa(p.ID)
	out.Method = p.PaymentMethodID
	out.Type = p.Status

	switch p.Status {
	case "approved", "authorized":
		out.Kind = EventSucceeded
	case "rejected", "cancelled":
		out.Kind = EventFailed
	}
	return out, nil
}

// verifyMercadoPagoSignature checks "ts=...,v1=..." against the manifest
// "id:<data.id>;request-id:<x-request-id>;ts:<ts>;".
func verifyMercadoPagoSignature(secret string, header http.Header, dataID string) bool {
	var ts, v1 string
	for _, part := range strings.Split(header.Get("X-Signature"), ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "ts":
			ts = v
		case "v1":
			v1 = v
		}
	}
	if ts == "" || v1 == "" {
		return false
	}

	manifest := mercadoPagoManifest(dataID, header.Get("X-Request-Id"), ts)
	got, err := hex.DecodeString(v1)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return hmac.Equal(got, mac.Sum(nil))
}

func mercadoPagoManifest(dataID, requestID, ts string) string {
	var b strings.Builder
	if dataID != "" {
		fmt.Fprintf(&b, "id:%s;", strings.ToLower(dataID))
	}
	if requestID != "" {
		fmt.Fprintf(&b, "request-id:%s;", requestID)
	}
	fmt.Fprintf(&b, "ts:%s;", ts)
	return b.String()
}
