package orders

import (
	"time"

	"github.com/cartpulse/order-tracker/internal/timeline"
)

// Product is a store-owned fulfillment template. Steps keep their
// relative durations; they are compiled per order, never in place.
type Product struct {
	ID          string                  `json:"id"`
	StoreID     string                  `json:"storeId"`
	DisplayName string                  `json:"displayName"`
	Image       string                  `json:"image,omitempty"`
	Description string                  `json:"description,omitempty"`
	CustomSteps []timeline.StepTemplate `json:"customSteps"`
	WebhookURL  string                  `json:"webhookUrl,omitempty"`
	Active      bool                    `json:"active"`
	CreatedAt   time.Time               `json:"createdAt"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

// ProductDetails is the snapshot merged into an order at ingestion:
// the purchased line item plus the product's configured presentation.
type ProductDetails struct {
	Title       string `json:"title"`
	DisplayName string `json:"displayName"`
	Image       string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
	SKU         string `json:"sku,omitempty"`
	Quantity    int    `json:"quantity"`
}

// Customer carries masked contact data. Email stays clear: it is the
// customer-facing lookup key.
type Customer struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	DocumentID string `json:"documentId"`
}

type ShippingAddress struct {
	Street       string `json:"street,omitempty"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	ZipCode      string `json:"zipCode,omitempty"`
	Country      string `json:"country"`
}

type Payment struct {
	Method        string `json:"method"`
	Status        string `json:"status"`
	TransactionID string `json:"transactionId"`
}

// Order is created exactly once per (storeId, externalOrderId). The
// compiled timeline is stored absolute; progress fields are recomputed
// from it on read, never from the product template.
type Order struct {
	ID                  string                  `json:"id"`
	ExternalOrderID     string                  `json:"externalOrderId"`
	ExternalOrderNumber string                  `json:"externalOrderNumber,omitempty"`
	StoreID             string                  `json:"storeId"`
	ProductID           string                  `json:"productId"`
	ProductDetails      ProductDetails          `json:"productDetails"`
	CustomerEmail       string                  `json:"customerEmail"`
	Customer            Customer                `json:"customer"`
	ShippingAddress     ShippingAddress         `json:"shippingAddress"`
	Payment             Payment                 `json:"payment"`
	CustomSteps         []timeline.CompiledStep `json:"customSteps"`
	CurrentStepIndex    int                     `json:"currentStepIndex"`
	Progress            int                     `json:"progress"`
	Status              Status                  `json:"status"`
	CreatedAt           time.Time               `json:"createdAt"`
	UpdatedAt           time.Time               `json:"updatedAt"`
}
