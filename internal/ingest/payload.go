package ingest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cartpulse/order-tracker/internal/apperr"
)

// EventOrderPaid is the only event this pipeline ingests.
const EventOrderPaid = "order.paid"

// WebhookPayload is the typed form of the purchase-event body. Parsing
// validates the required shape up front so the rest of the pipeline
// never reads loosely typed fields. Extra fields on the wire are
// ignored; the checkout feed carries plenty we do not use.
type WebhookPayload struct {
	Event string        `json:"event"`
	Order *WebhookOrder `json:"order"`
}

// ExternalID tolerates the checkout feed sending order ids as either a
// JSON number or a string; internally it is always the string form.
type ExternalID string

func (e *ExternalID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*e = ExternalID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("order id must be a string or number")
	}
	*e = ExternalID(n.String())
	return nil
}

func (e ExternalID) String() string { return string(e) }

type WebhookOrder struct {
	ID          ExternalID        `json:"id"`
	Number      string            `json:"number"`
	OrderNumber string            `json:"order_number"`
	Email       string            `json:"email"`
	Customer    WebhookCustomer   `json:"customer"`
	Address     WebhookAddress    `json:"address"`
	LineItems   []WebhookLineItem `json:"line_items"`
	PaymentType string            `json:"payment_type"`
}

type WebhookCustomer struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
	DocumentID string `json:"document_id"`
}

type WebhookAddress struct {
	Address1     string `json:"address1"`
	Address2     string `json:"address2"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	Province     string `json:"province"`
	State        string `json:"state"`
	Zip          string `json:"zip"`
	Country      string `json:"country"`
}

type WebhookLineItem struct {
	Title    string `json:"title"`
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// ParsePayload decodes and validates a webhook body. Every failure is
// an InvalidPayload rejection; the caller re-delivers, we never retry.
func ParsePayload(body []byte) (WebhookPayload, error) {
	var p WebhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return WebhookPayload{}, fmt.Errorf("%w: malformed JSON body", apperr.ErrInvalidPayload)
	}
	if p.Event != EventOrderPaid {
		return WebhookPayload{}, fmt.Errorf("%w: expected event %q, got %q", apperr.ErrInvalidPayload, EventOrderPaid, p.Event)
	}
	if p.Order == nil {
		return WebhookPayload{}, fmt.Errorf("%w: order data is required", apperr.ErrInvalidPayload)
	}
	if p.Order.ID.String() == "" {
		return WebhookPayload{}, fmt.Errorf("%w: order.id is required", apperr.ErrInvalidPayload)
	}
	if len(p.Order.LineItems) == 0 {
		return WebhookPayload{}, fmt.Errorf("%w: order has no line_items", apperr.ErrInvalidPayload)
	}
	return p, nil
}

// CustomerName joins first and last name, tolerating either being absent.
func (o *WebhookOrder) CustomerName() string {
	return strings.TrimSpace(strings.TrimSpace(o.Customer.FirstName) + " " + strings.TrimSpace(o.Customer.LastName))
}
