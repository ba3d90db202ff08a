package payments

import (
	"context"
	"errors"
	"time"
)

var ErrInvalidSignature = errors.New("payment callback signature mismatch")

type LinkRequest struct {
	Reference   string
	Amount      int64
	Currency    string
	Description string
	Name        string
	Mobile      string
	Email       string
	CallbackURL string
}

type Link struct {
	ID  string
	URL string
}

// Lookup identifies a payment at the provider. LinkID is the link or invoice
// id stored on the booking; PaymentID is optional and comes from the redirect.
type Lookup struct {
	PaymentID string
	LinkID    string
}

// Status is the provider's view of a single payment. Reference and Amount are
// read from the provider's own record of the link, never from the redirect.
type Status struct {
	PaymentID  string
	LinkID     string
	Captured   bool
	CapturedAt time.Time
	Reference  string
	Amount     int64
}

// Gateway is a hosted-payment provider. Implementations must honour ctx
// deadlines on every outbound call.
type Gateway interface {
	Name() string
	CreateLink(ctx context.Context, req LinkRequest) (*Link, error)
	FetchStatus(ctx context.Context, lookup Lookup) (*Status, error)
}

// CallbackVerifier is implemented by gateways that sign their redirect
// parameters.
type CallbackVerifier interface {
	VerifyCallback(params map[string]string) error
}
