package httpx

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/cartpulse/order-tracker/internal/apperr"
	"github.com/cartpulse/order-tracker/internal/ingest"
	kafkax "github.com/cartpulse/order-tracker/internal/kafka"
	"github.com/cartpulse/order-tracker/internal/logx"
	"github.com/cartpulse/order-tracker/internal/orders"
	"github.com/cartpulse/order-tracker/internal/redisx"
)

// EventPublisher is satisfied by the kafka producer.
type EventPublisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type WebhookHandler struct {
	Ingestor *ingest.Ingestor
	Producer EventPublisher
	Redis    *redis.Client
	Service  string
}

type WebhookResp struct {
	Success              bool   `json:"success"`
	OrderID              string `json:"orderId"`
	ExternalOrderID      string `json:"externalOrderId"`
	CustomStepsScheduled int    `json:"customStepsScheduled"`
	Progress             int    `json:"progress"`
	Duplicate            bool   `json:"duplicate,omitempty"`
}

func (h *WebhookHandler) Register(r *chi.Mux) {
	r.Post("/webhookReceiver", h.receive)
}

func (h *WebhookHandler) receive(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("productId")
	sid := r.URL.Query().Get("storeId")
	if productID == "" || sid == "" {
		writeErr(w, fmt.Errorf("%w: productId and storeId query parameters are required", apperr.ErrInvalidPayload))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeErr(w, fmt.Errorf("%w: unreadable body", apperr.ErrInvalidPayload))
		return
	}

	ctx := r.Context()
	log := logx.FromContext(ctx)

	res, err := h.Ingestor.Ingest(ctx, body, productID, sid)
	if err != nil {
		log.Warnw("webhook rejected", "product_id", productID, "store_id", sid,
			"code", apperr.Kind(err), "err", err)
		writeErr(w, err)
		return
	}

	o := res.Order

	// Redis shortcut for repeated deliveries; the DB unique index stays
	// the source of truth.
	if h.Redis != nil {
		idemKey := fmt.Sprintf(redisx.KeyIdemIngest, o.StoreID, o.ExternalOrderID)
		_ = h.Redis.Set(ctx, idemKey, o.ID, redisx.TTLIdempotency).Err()
	}

	// A redelivered webhook is a no-op: no second event either.
	if !res.Existed && h.Producer != nil {
		ev := orders.Envelope{
			EventID:       uuid.NewString(),
			EventType:     orders.EventOrderIngested,
			EventVersion:  1,
			OccurredAt:    time.Now().UTC(),
			Producer:      h.Service,
			TraceID:       middleware.GetReqID(ctx),
			CorrelationID: o.ID,
			Payload: kafkax.MustMarshal(orders.OrderIngestedPayload{
				OrderID:         o.ID,
				ExternalOrderID: o.ExternalOrderID,
				StoreID:         o.StoreID,
				ProductID:       o.ProductID,
				CustomerEmail:   o.CustomerEmail,
				StepsScheduled:  len(o.CustomSteps),
				Progress:        o.Progress,
			}),
		}
		h.Producer.Publish(orders.PartitionKey(o.ID), kafkax.MustMarshal(ev),
			kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderIngested)},
			kafkago.Header{Key: "x-event-version", Value: []byte("1")},
		)
	}

	log.Infow("order ingested", "order_id", o.ID, "external_order_id", o.ExternalOrderID,
		"steps", len(o.CustomSteps), "duplicate", res.Existed)

	writeJSON(w, http.StatusCreated, WebhookResp{
		Success:              true,
		OrderID:              o.ID,
		ExternalOrderID:      o.ExternalOrderID,
		CustomStepsScheduled: len(o.CustomSteps),
		Progress:             o.Progress,
		Duplicate:            res.Existed,
	})
}
