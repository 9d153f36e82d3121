package payment

import (
	"context"
	"errors"
)

// ModePayment is a one-off charge session.
const ModePayment = "payment"

var ErrInvalidSession = errors.New("invalid checkout session request")

// LineItem is one purchasable row shown on the provider's hosted page.
type LineItem struct {
	Name        string
	Description string
	UnitAmount  int64 // minor units
	Currency    string
	Quantity    int64
}

// SessionRequest describes a hosted checkout session.
type SessionRequest struct {
	PaymentMethods []string
	LineItems      []LineItem
	Mode           string
	SuccessURL     string
	CancelURL      string
}

// Validate rejects requests the provider would refuse anyway.
func (r SessionRequest) Validate() error {
	if len(r.LineItems) == 0 {
		return errors.Join(ErrInvalidSession, errors.New("no line items"))
	}
	if r.SuccessURL == "" || r.CancelURL == "" {
		return errors.Join(ErrInvalidSession, errors.New("success and cancel URLs are required"))
	}
	for _, item := range r.LineItems {
		if item.Quantity < 1 || item.UnitAmount < 0 {
			return errors.Join(ErrInvalidSession, errors.New("line items need a positive quantity and non-negative amount"))
		}
	}
	return nil
}

// Session is the provider's answer: an opaque id and the hosted page URL.
type Session struct {
	ID  string
	URL string
}

// Provider creates checkout sessions. Implementations must not retry.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error)
}
