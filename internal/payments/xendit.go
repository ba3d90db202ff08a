package payments

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/xendit/xendit-go/v6"
	"github.com/xendit/xendit-go/v6/invoice"
)

// Invoice is the subset of a Xendit invoice the gateway reads.
type Invoice struct {
	ID         string
	ExternalID string
	Status     string
	URL        string
	Amount     float64
	Updated    time.Time
}

type InvoiceClient interface {
	CreateInvoice(ctx context.Context, req invoice.CreateInvoiceRequest) (*Invoice, error)
	GetInvoice(ctx context.Context, id string) (*Invoice, error)
}

type xenditInvoiceClient struct {
	client *xendit.APIClient
}

func NewXenditInvoiceClient(client *xendit.APIClient) InvoiceClient {
	return &xenditInvoiceClient{client: client}
}

func (x *xenditInvoiceClient) CreateInvoice(ctx context.Context, req invoice.CreateInvoiceRequest) (*Invoice, error) {
	resp, _, xerr := x.client.InvoiceApi.CreateInvoice(ctx).
		CreateInvoiceRequest(req).
		Execute()
	if xerr != nil {
		return nil, fmt.Errorf("xendit create invoice: %s", xerr.Error())
	}
	return toInvoice(resp)
}

func (x *xenditInvoiceClient) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	resp, _, xerr := x.client.InvoiceApi.GetInvoiceById(ctx, id).Execute()
	if xerr != nil {
		return nil, fmt.Errorf("xendit get invoice: %s", xerr.Error())
	}
	return toInvoice(resp)
}

func toInvoice(inv *invoice.Invoice) (*Invoice, error) {
	if inv == nil {
		return nil, fmt.Errorf("xendit invoice: empty response")
	}
	return &Invoice{
		ID:         inv.GetId(),
		ExternalID: inv.GetExternalId(),
		Status:     string(inv.GetStatus()),
		URL:        inv.GetInvoiceUrl(),
		Amount:     inv.GetAmount(),
		Updated:    inv.GetUpdated(),
	}, nil
}

// Xendit settles bookings through invoices. The invoice external id is the
// booking reference, and the customer is redirected to the callback with
// that reference once paid.
type Xendit struct {
	invoices InvoiceClient
}

func NewXendit(invoices InvoiceClient) *Xendit {
	return &Xendit{invoices: invoices}
}

func (x *Xendit) Name() string {
	return "xendit"
}

func (x *Xendit) CreateLink(ctx context.Context, req LinkRequest) (*Link, error) {
	invoiceReq := invoice.NewCreateInvoiceRequest(req.Reference, float64(req.Amount))
	invoiceReq.SetCurrency(req.Currency)
	if req.Description != "" {
		invoiceReq.SetDescription(req.Description)
	}
	invoiceReq.SetSuccessRedirectUrl(withReference(req.CallbackURL, req.Reference))

	inv, err := x.invoices.CreateInvoice(ctx, *invoiceReq)
	if err != nil {
		return nil, err
	}
	if inv.ID == "" || inv.URL == "" {
		return nil, fmt.Errorf("xendit create invoice: incomplete response")
	}
	return &Link{ID: inv.ID, URL: inv.URL}, nil
}

// FetchStatus reads the booking's invoice. Xendit redirects carry no payment
// id, so the invoice id is the lookup key.
func (x *Xendit) FetchStatus(ctx context.Context, lookup Lookup) (*Status, error) {
	if lookup.LinkID == "" {
		return nil, fmt.Errorf("xendit get invoice: missing invoice id")
	}
	inv, err := x.invoices.GetInvoice(ctx, lookup.LinkID)
	if err != nil {
		return nil, err
	}
	captured := inv.Status == "PAID" || inv.Status == "SETTLED"
	status := &Status{
		PaymentID: inv.ID,
		LinkID:    inv.ID,
		Captured:  captured,
		Reference: inv.ExternalID,
		Amount:    int64(inv.Amount),
	}
	if captured {
		status.CapturedAt = inv.Updated.UTC()
	}
	return status, nil
}

func withReference(callbackURL, reference string) string {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return callbackURL
	}
	q := u.Query()
	q.Set("reference", reference)
	u.RawQuery = q.Encode()
	return u.String()
}
