package services

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/farellandr/hydrovibe/internal/helpers"
	"github.com/farellandr/hydrovibe/internal/models"
	"github.com/skip2/go-qrcode"
)

var (
	ErrBookingIncomplete = errors.New("ticket requested for a booking that is not paid")
	ErrBookingNotLoaded  = errors.New("ticket requested without user and ticket type loaded")
)

const qrSize = 256

type TicketPayload struct {
	EventID             string `json:"event_id"`
	Mobile              string `json:"mobile"`
	TicketType          string `json:"ticket_type"`
	Quantity            int    `json:"quantity"`
	AttendingTime       string `json:"attending_time"`
	CabFacilityRequired bool   `json:"cab_facility_required"`
	PaymentCompleted    bool   `json:"payment_completed"`
	Reference           string `json:"reference"`
	Signature           string `json:"signature"`
}

func (p *TicketPayload) components() []string {
	return []string{
		p.EventID,
		p.Mobile,
		p.TicketType,
		strconv.Itoa(p.Quantity),
		p.AttendingTime,
		strconv.FormatBool(p.CabFacilityRequired),
		strconv.FormatBool(p.PaymentCompleted),
		p.Reference,
	}
}

// TicketRenderer turns a paid booking into a signed QR ticket. Output depends
// only on the booking and the signing key.
type TicketRenderer struct {
	signer *helpers.HMACSigner
}

func NewTicketRenderer(signingKey string) *TicketRenderer {
	return &TicketRenderer{signer: helpers.NewHMACSigner(signingKey)}
}

// Payload builds the signed ticket body. The booking must be completed and
// have User and TicketType loaded.
func (r *TicketRenderer) Payload(booking *models.Booking) (*TicketPayload, error) {
	if !booking.PaymentCompleted {
		return nil, ErrBookingIncomplete
	}
	if booking.User == nil || booking.TicketType == nil {
		return nil, ErrBookingNotLoaded
	}

	payload := &TicketPayload{
		EventID:             booking.EventID.String(),
		Mobile:              booking.User.Mobile,
		TicketType:          booking.TicketType.Name,
		Quantity:            booking.Quantity,
		AttendingTime:       booking.AttendingTime,
		CabFacilityRequired: booking.CabFacilityRequired,
		PaymentCompleted:    booking.PaymentCompleted,
		Reference:           booking.PaymentReference,
	}
	payload.Signature = r.signer.Sign(payload.components()...)
	return payload, nil
}

func (r *TicketRenderer) PNG(booking *models.Booking) ([]byte, error) {
	payload, err := r.Payload(booking)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(string(data), qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// Render returns the QR ticket as base64 PNG.
func (r *TicketRenderer) Render(booking *models.Booking) (string, error) {
	png, err := r.PNG(booking)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

// Verify parses a scanned ticket and checks its signature.
func (r *TicketRenderer) Verify(raw string) (*TicketPayload, error) {
	var payload TicketPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, helpers.WrapError(helpers.KindValidation, "Ticket payload is not valid JSON", err)
	}
	if payload.Signature == "" || !r.signer.Verify(payload.Signature, payload.components()...) {
		return nil, helpers.NewError(helpers.KindForbidden, "Ticket signature is invalid")
	}
	if !payload.PaymentCompleted {
		return nil, helpers.NewError(helpers.KindForbidden, "Ticket is not paid")
	}
	return &payload, nil
}
