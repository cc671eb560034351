// Package ingest turns a purchase webhook into a persisted, masked
// order with a compiled fulfillment timeline.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cartpulse/order-tracker/internal/apperr"
	"github.com/cartpulse/order-tracker/internal/logx"
	"github.com/cartpulse/order-tracker/internal/orders"
	"github.com/cartpulse/order-tracker/internal/pii"
	"github.com/cartpulse/order-tracker/internal/timeline"
)

// ProductStore and OrderStore are the persistence seams; the pgx
// repositories implement them in production.
type ProductStore interface {
	GetByID(ctx context.Context, id string) (orders.Product, error)
}

type OrderStore interface {
	Create(ctx context.Context, o orders.Order) (orders.Order, bool, error)
	GetByExternalID(ctx context.Context, storeID, externalID string) (orders.Order, error)
}

// IdemCache short-circuits redeliveries already absorbed within the
// cache TTL. A miss, or no cache at all, falls through to the
// unique-index path in OrderStore.Create.
type IdemCache interface {
	Seen(ctx context.Context, storeID, externalOrderID string) bool
}

const defaultCountry = "United States"

// Ingestor orchestrates one webhook delivery: validate, resolve the
// product, compile the timeline, mask PII, persist. All dependencies
// are injected; Now makes the anchor instant deterministic in tests.
type Ingestor struct {
	Products ProductStore
	Orders   OrderStore
	Idem     IdemCache
	Now      func() time.Time
}

// Result reports whether the delivery created the order or hit the
// idempotency boundary (a redelivered webhook returns the existing
// order as a successful no-op).
type Result struct {
	Order   orders.Order
	Existed bool
}

// Ingest processes a purchase webhook addressed to a product and store.
// Rejections (bad payload, unknown/inactive product, foreign product)
// are terminal; only storage failures are worth a redelivery.
func (ing *Ingestor) Ingest(ctx context.Context, body []byte, productID, storeID string) (Result, error) {
	log := logx.FromContext(ctx)

	payload, err := ParsePayload(body)
	if err != nil {
		return Result{}, err
	}

	extID := payload.Order.ID.String()
	if ing.Idem != nil && ing.Idem.Seen(ctx, storeID, extID) {
		if existing, err := ing.Orders.GetByExternalID(ctx, storeID, extID); err == nil {
			log.Infow("duplicate webhook delivery (cache shortcut), returning existing order",
				"order_id", existing.ID, "external_order_id", extID)
			return Result{Order: existing, Existed: true}, nil
		}
		// Stale cache entry without a row behind it: take the full path.
	}

	product, err := ing.Products.GetByID(ctx, productID)
	if err != nil {
		return Result{}, err
	}
	if !product.Active {
		return Result{}, fmt.Errorf("%w: product %s is inactive", apperr.ErrProductNotFound, productID)
	}
	if product.StoreID != storeID {
		// Cross-store references are a rejection, never silently corrected.
		return Result{}, fmt.Errorf("%w: product %s", apperr.ErrOwnershipMismatch, productID)
	}

	now := ing.now()
	steps, err := timeline.Compile(product.CustomSteps, now)
	if err != nil {
		return Result{}, err
	}
	progress := timeline.Evaluate(steps, now)

	order := ing.buildOrder(payload.Order, product, storeID, progress)

	created, existed, err := ing.Orders.Create(ctx, order)
	if err != nil {
		return Result{}, err
	}
	if existed {
		log.Infow("duplicate webhook delivery, returning existing order",
			"order_id", created.ID, "external_order_id", created.ExternalOrderID)
	}
	return Result{Order: created, Existed: existed}, nil
}

func (ing *Ingestor) buildOrder(src *WebhookOrder, product orders.Product, storeID string, progress timeline.Progress) orders.Order {
	item := src.LineItems[0]
	qty := item.Quantity
	if qty <= 0 {
		qty = 1
	}

	externalNumber := src.Number
	if externalNumber == "" {
		externalNumber = src.OrderNumber
	}

	country := src.Address.Country
	if country == "" {
		country = defaultCountry
	}
	state := src.Address.Province
	if state == "" {
		state = src.Address.State
	}

	method := src.PaymentType
	if method == "" {
		method = "Credit Card"
	}

	complement := ""
	if src.Address.Address2 != "" {
		complement = pii.Redacted
	}

	return orders.Order{
		ID:                  uuid.NewString(),
		ExternalOrderID:     src.ID.String(),
		ExternalOrderNumber: externalNumber,
		StoreID:             storeID,
		ProductID:           product.ID,
		ProductDetails: orders.ProductDetails{
			Title:       item.Title,
			DisplayName: product.DisplayName,
			Image:       product.Image,
			Description: product.Description,
			SKU:         item.SKU,
			Quantity:    qty,
		},
		CustomerEmail: src.Email,
		Customer: orders.Customer{
			Name:  src.CustomerName(),
			Email: src.Email,
			Phone: pii.MaskPhone(src.Customer.Phone),
			// Document ids never reach storage in the clear.
			DocumentID: pii.Redacted,
		},
		ShippingAddress: orders.ShippingAddress{
			Street:       pii.MaskAddress(src.Address.Address1),
			Complement:   complement,
			Neighborhood: src.Address.Neighborhood,
			City:         src.Address.City,
			State:        state,
			ZipCode:      src.Address.Zip,
			Country:      country,
		},
		Payment: orders.Payment{
			Method: method,
			Status: "approved",
			// Always masked regardless of source value.
			TransactionID: pii.Redacted,
		},
		CustomSteps:      progress.Steps,
		CurrentStepIndex: progress.CurrentStepIndex,
		Progress:         progress.Percent,
		Status:           orders.StatusNew,
	}
}

func (ing *Ingestor) now() time.Time {
	if ing.Now != nil {
		return ing.Now()
	}
	return time.Now().UTC()
}
