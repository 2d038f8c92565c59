package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedPayload = errors.New("malformed webhook payload")
	ErrNotConfigured    = errors.New("payment gateway not configured")
)

// OrderRequest describes the deposit to collect for one hold.
type OrderRequest struct {
	// Reference is our idempotency key for the order, unique per hold.
	Reference     string
	Amount        int64 // minor units
	Currency      string
	Description   string
	CustomerEmail string
	Metadata      map[string]string
}

type Order struct {
	ID           string
	ClientSecret string
	CheckoutURL  string
}

type EventKind string

const (
	EventSucceeded EventKind = "succeeded"
	EventFailed    EventKind = "failed"
	// EventIgnored is a verified callback that carries no state change
	// for us (pending, created, unrelated types).
	EventIgnored EventKind = "ignored"
)

type Event struct {
	Kind      EventKind
	OrderID   string
	PaymentID string
	Method    string
	Type      string
}

// Gateway is a payment provider able to create deposit orders and verify
// its own callbacks.
type Gateway interface {
	Name() string
	PublicKey() string
	CreateOrder(ctx context.Context, req OrderRequest) (Order, error)
	ParseCallback(ctx context.Context, body []byte, header http.Header) (Event, error)
}

// ClampDeposit bounds percent to [0, 100]. A nil percent means def.
func ClampDeposit(percent *int, def int) int {
	p := def
	if percent != nil {
		p = *percent
	}
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// DepositAmount returns round(price * percent / 100) in minor units of a
// two-decimal currency.
func DepositAmount(price float64, percent int) int64 {
	return int64(math.Round(price * 100 * float64(percent) / 100))
}

func wrapGateway(name string, err error) error {
	return fmt.Errorf("%s: %w", name, err)
}
