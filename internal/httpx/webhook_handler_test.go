package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cartpulse/order-tracker/internal/ingest"
	kafkax "github.com/cartpulse/order-tracker/internal/kafka"
	"github.com/cartpulse/order-tracker/internal/orders"
	"github.com/cartpulse/order-tracker/internal/timeline"
)

type fakeOrderCreator struct {
	created []orders.Order
}

func (f *fakeOrderCreator) Create(_ context.Context, o orders.Order) (orders.Order, bool, error) {
	for _, existing := range f.created {
		if existing.StoreID == o.StoreID && existing.ExternalOrderID == o.ExternalOrderID {
			return existing, true, nil
		}
	}
	f.created = append(f.created, o)
	return o, false, nil
}

func (f *fakeOrderCreator) GetByExternalID(_ context.Context, storeID, externalID string) (orders.Order, error) {
	for _, o := range f.created {
		if o.StoreID == storeID && o.ExternalOrderID == externalID {
			return o, nil
		}
	}
	return orders.Order{}, orders.ErrOrderNotFound
}

type fakePublisher struct{ published [][]byte }

func (f *fakePublisher) Publish(_, value []byte, _ ...kafkago.Header) {
	f.published = append(f.published, value)
}

func webhookFixture() (*fakeOrderCreator, *fakePublisher, http.Handler) {
	products := &fakeProductStore{byID: map[string]orders.Product{
		"prod-1": {
			ID:          "prod-1",
			StoreID:     "store-a",
			DisplayName: "Burn Jaro",
			Active:      true,
			CustomSteps: []timeline.StepTemplate{
				{Name: "Received", ScheduledFor: "30 minutes"},
				{Name: "Shipped", ScheduledFor: "1 day"},
			},
		},
	}}
	creator := &fakeOrderCreator{}
	pub := &fakePublisher{}

	r := NewRouter(zap.NewNop().Sugar())
	(&WebhookHandler{
		Ingestor: &ingest.Ingestor{
			Products: products,
			Orders:   creator,
			Now:      func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
		},
		Producer: pub,
		Service:  "order-tracker-test",
	}).Register(r)
	return creator, pub, r
}

const paidBody = `{
	"event": "order.paid",
	"order": {
		"id": 12345,
		"email": "buyer@example.com",
		"customer": {"first_name": "Ana", "last_name": "Reis", "phone": "+55 21 91234-5678"},
		"address": {"address1": "Rua Alfa, 42", "city": "Rio", "province": "RJ", "zip": "20000-000", "country": "Brasil"},
		"line_items": [{"title": "Burn Jaro - 6 bottles", "quantity": 1}]
	}
}`

func TestWebhookIngestsOrder(t *testing.T) {
	t.Parallel()

	creator, pub, srv := webhookFixture()

	req := httptest.NewRequest(http.MethodPost,
		"/webhookReceiver?productId=prod-1&storeId=store-a", strings.NewReader(paidBody))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp WebhookResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "12345", resp.ExternalOrderID)
	assert.Equal(t, 2, resp.CustomStepsScheduled)
	assert.Equal(t, 0, resp.Progress)
	assert.False(t, resp.Duplicate)

	require.Len(t, creator.created, 1)
	require.Len(t, pub.published, 1)

	var env orders.Envelope
	require.NoError(t, json.Unmarshal(pub.published[0], &env))
	assert.Equal(t, orders.EventOrderIngested, env.EventType)

	p, err := kafkax.UnwrapPayload[orders.OrderIngestedPayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, "12345", p.ExternalOrderID)
	assert.Equal(t, "store-a", p.StoreID)
	assert.Equal(t, 2, p.StepsScheduled)
}

func TestWebhookMissingQueryParams(t *testing.T) {
	t.Parallel()

	creator, pub, srv := webhookFixture()

	req := httptest.NewRequest(http.MethodPost, "/webhookReceiver?productId=prod-1",
		strings.NewReader(paidBody))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, creator.created)
	assert.Empty(t, pub.published)
}

func TestWebhookOwnershipMismatch(t *testing.T) {
	t.Parallel()

	creator, pub, srv := webhookFixture()

	req := httptest.NewRequest(http.MethodPost,
		"/webhookReceiver?productId=prod-1&storeId=store-b", strings.NewReader(paidBody))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "ownership_mismatch")
	assert.Empty(t, creator.created, "rejected webhook must not persist an order")
	assert.Empty(t, pub.published)
}

func TestWebhookUnknownProduct(t *testing.T) {
	t.Parallel()

	_, _, srv := webhookFixture()

	req := httptest.NewRequest(http.MethodPost,
		"/webhookReceiver?productId=ghost&storeId=store-a", strings.NewReader(paidBody))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "product_not_found")
}

func TestWebhookInvalidPayload(t *testing.T) {
	t.Parallel()

	creator, _, srv := webhookFixture()

	req := httptest.NewRequest(http.MethodPost,
		"/webhookReceiver?productId=prod-1&storeId=store-a",
		strings.NewReader(`{"event":"order.refunded"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_payload")
	assert.Empty(t, creator.created)
}

func TestWebhookDuplicateDelivery(t *testing.T) {
	t.Parallel()

	creator, pub, srv := webhookFixture()

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost,
			"/webhookReceiver?productId=prod-1&storeId=store-a", strings.NewReader(paidBody))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp WebhookResp
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, i == 1, resp.Duplicate)
	}

	assert.Len(t, creator.created, 1, "redelivery must not double-create")
	assert.Len(t, pub.published, 1, "redelivery must not re-publish the event")
}
