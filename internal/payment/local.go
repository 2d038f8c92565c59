package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const LocalSignatureHeader = "X-Signature"

// LocalGateway settles nothing. It hands out order ids and accepts
// callbacks signed with a shared secret, for development and tests.
type LocalGateway struct {
	secret []byte
}

func NewLocalGateway(secret string) *LocalGateway {
	return &LocalGateway{secret: []byte(secret)}
}

func (g *LocalGateway) Name() string      { return "local" }
func (g *LocalGateway) PublicKey() string { return "" }

func (g *LocalGateway) CreateOrder(_ context.Context, req OrderRequest) (Order, error) {
	return Order{ID: "local_" + uuid.NewString()}, nil
}

type localCallback struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Status    string `json:"status"`
	Method    string `json:"method"`
}

func (g *LocalGateway) ParseCallback(_ context.Context, body []byte, header http.Header) (Event, error) {
	if len(g.secret) == 0 {
		return Event{}, ErrNotConfigured
	}
	if !VerifyHMAC(g.secret, body, header.Get(LocalSignatureHeader)) {
		return Event{}, ErrInvalidSignature
	}

	var cb localCallback
	if err := json.Unmarshal(body, &cb); err != nil || cb.OrderID == "" {
		return Event{}, ErrMalformedPayload
	}

	ev := Event{
		OrderID:   cb.OrderID,
		PaymentID: cb.PaymentID,
		Method:    cb.Method,
		Type:      cb.Status,
	}
	switch strings.ToLower(cb.Status) {
	case "captured", "authorized", "succeeded", "paid":
		ev.Kind = EventSucceeded
	case "failed":
		ev.Kind = EventFailed
	default:
		ev.Kind = EventIgnored
	}
	return ev, nil
}

// Sign returns the hex HMAC-SHA256 of body.
func Sign(secret []byte, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC compares in constant time.
func VerifyHMAC(secret []byte, body []byte, signature string) bool {
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
