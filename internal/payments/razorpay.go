package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/farellandr/hydrovibe/internal/helpers"
	"github.com/go-resty/resty/v2"
)

const (
	razorpayCaptured = "captured"

	RazorpayPaymentIDParam = "razorpay_payment_id"
	RazorpayLinkIDParam    = "razorpay_payment_link_id"
	RazorpayReferenceParam = "razorpay_payment_link_reference_id"
	RazorpayLinkStatus     = "razorpay_payment_link_status"
	RazorpaySignatureParam = "razorpay_signature"
)

type Razorpay struct {
	client *resty.Client
	signer *helpers.HMACSigner
}

func NewRazorpay(baseURL, keyID, keySecret string) *Razorpay {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetBasicAuth(keyID, keySecret).
		SetHeader("Content-Type", "application/json")

	return &Razorpay{
		client: client,
		signer: helpers.NewHMACSigner(keySecret),
	}
}

func (r *Razorpay) Name() string {
	return "razorpay"
}

type razorpayLinkRequest struct {
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	AcceptPartial  bool              `json:"accept_partial"`
	ReferenceID    string            `json:"reference_id"`
	Description    string            `json:"description,omitempty"`
	Customer       razorpayCustomer  `json:"customer"`
	Notify         razorpayNotify    `json:"notify"`
	ReminderEnable bool              `json:"reminder_enable"`
	Notes          map[string]string `json:"notes"`
	CallbackURL    string            `json:"callback_url"`
	CallbackMethod string            `json:"callback_method"`
}

type razorpayCustomer struct {
	Name    string `json:"name,omitempty"`
	Contact string `json:"contact,omitempty"`
	Email   string `json:"email,omitempty"`
}

type razorpayNotify struct {
	SMS   bool `json:"sms"`
	Email bool `json:"email"`
}

type razorpayLinkResponse struct {
	ID       string `json:"id"`
	ShortURL string `json:"short_url"`
}

// razorpayLinkStatus is the payment link entity. Payments made through the
// link are listed on it, so a payment id is checked against the link rather
// than trusted from the redirect.
type razorpayLinkStatus struct {
	ID          string                `json:"id"`
	Status      string                `json:"status"`
	ReferenceID string                `json:"reference_id"`
	Amount      int64                 `json:"amount"`
	AmountPaid  int64                 `json:"amount_paid"`
	Payments    []razorpayLinkPayment `json:"payments"`
}

type razorpayLinkPayment struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	CreatedAt int64  `json:"created_at"`
}

type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateLink creates a payment link. Amounts are sent in paise.
func (r *Razorpay) CreateLink(ctx context.Context, req LinkRequest) (*Link, error) {
	body := razorpayLinkRequest{
		Amount:      req.Amount * 100,
		Currency:    req.Currency,
		ReferenceID: req.Reference,
		Description: req.Description,
		Customer: razorpayCustomer{
			Name:    req.Name,
			Contact: req.Mobile,
			Email:   req.Email,
		},
		Notes:          map[string]string{"reference": req.Reference},
		CallbackURL:    req.CallbackURL,
		CallbackMethod: "get",
	}

	var link razorpayLinkResponse
	var apiErr razorpayError
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&link).
		SetError(&apiErr).
		Post("/v1/payment_links")
	if err != nil {
		return nil, fmt.Errorf("razorpay create link: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("razorpay create link: status %d: %s", resp.StatusCode(), apiErr.Error.Description)
	}
	if link.ID == "" || link.ShortURL == "" {
		return nil, fmt.Errorf("razorpay create link: incomplete response")
	}

	return &Link{ID: link.ID, URL: link.ShortURL}, nil
}

// FetchStatus reads the payment link and looks for a captured payment on it.
// When lookup.PaymentID is set only that payment counts.
func (r *Razorpay) FetchStatus(ctx context.Context, lookup Lookup) (*Status, error) {
	if lookup.LinkID == "" {
		return nil, fmt.Errorf("razorpay fetch link: missing link id")
	}

	var link razorpayLinkStatus
	var apiErr razorpayError
	resp, err := r.client.R().
		SetContext(ctx).
		SetPathParam("id", lookup.LinkID).
		SetResult(&link).
		SetError(&apiErr).
		Get("/v1/payment_links/{id}")
	if err != nil {
		return nil, fmt.Errorf("razorpay fetch link: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("razorpay fetch link: status %d: %s", resp.StatusCode(), apiErr.Error.Description)
	}

	status := &Status{
		PaymentID: lookup.PaymentID,
		LinkID:    link.ID,
		Reference: link.ReferenceID,
	}
	for _, payment := range link.Payments {
		if lookup.PaymentID != "" && payment.PaymentID != lookup.PaymentID {
			continue
		}
		if payment.Status != razorpayCaptured {
			continue
		}
		status.PaymentID = payment.PaymentID
		status.Captured = true
		status.Amount = payment.Amount / 100
		if payment.CreatedAt > 0 {
			status.CapturedAt = time.Unix(payment.CreatedAt, 0).UTC()
		}
		break
	}
	return status, nil
}

// VerifyCallback checks razorpay_signature. A redirect that names a payment
// must be signed.
func (r *Razorpay) VerifyCallback(params map[string]string) error {
	signature := params[RazorpaySignatureParam]
	if signature == "" {
		if params[RazorpayPaymentIDParam] != "" {
			return ErrInvalidSignature
		}
		return nil
	}
	ok := r.signer.Verify(signature,
		params[RazorpayLinkIDParam],
		params[RazorpayReferenceParam],
		params[RazorpayLinkStatus],
		params[RazorpayPaymentIDParam],
	)
	if !ok {
		return ErrInvalidSignature
	}
	return nil
}
