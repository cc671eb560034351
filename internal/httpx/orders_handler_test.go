package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cartpulse/order-tracker/internal/orders"
	"github.com/cartpulse/order-tracker/internal/timeline"
)

type fakeOrderReader struct {
	orders map[string]orders.Order
}

func (f *fakeOrderReader) GetByID(_ context.Context, id, storeID string) (orders.Order, error) {
	o, ok := f.orders[id]
	if !ok || o.StoreID != storeID {
		return orders.Order{}, orders.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeOrderReader) ListByEmail(_ context.Context, email string) ([]orders.Order, error) {
	var out []orders.Order
	for _, o := range f.orders {
		if o.CustomerEmail == email {
			out = append(out, o)
		}
	}
	return out, nil
}

var ordersNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func storedOrder() orders.Order {
	// Ingested 45 minutes ago: step A (+30m) has elapsed, B (+90m) has not.
	steps, _ := timeline.Compile([]timeline.StepTemplate{
		{Name: "A", ScheduledFor: "30 minutes"},
		{Name: "B", ScheduledFor: "1 hour"},
	}, ordersNow.Add(-45*time.Minute))
	return orders.Order{
		ID:            "ord-1",
		StoreID:       "store-a",
		CustomerEmail: "buyer@example.com",
		CustomSteps:   steps,
		Status:        orders.StatusNew,
	}
}

func ordersRouter(reader *fakeOrderReader) http.Handler {
	r := NewRouter(zap.NewNop().Sugar())
	(&OrdersHandler{
		Repo: reader,
		Now:  func() time.Time { return ordersNow },
	}).Register(r)
	return r
}

func TestGetOrderRecomputesProgress(t *testing.T) {
	t.Parallel()

	srv := ordersRouter(&fakeOrderReader{orders: map[string]orders.Order{"ord-1": storedOrder()}})

	req := httptest.NewRequest(http.MethodGet, "/orders/ord-1", nil)
	req.Header.Set("X-Store-Id", "store-a")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var o orders.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &o))

	// Stored progress was stale (0); the response reflects the clock.
	assert.Equal(t, 50, o.Progress)
	assert.Equal(t, 1, o.CurrentStepIndex)
	assert.Equal(t, orders.StatusInProgress, o.Status)
	assert.True(t, o.CustomSteps[0].Completed)
	assert.True(t, o.CustomSteps[1].Current)
}

func TestGetOrderScopedToStore(t *testing.T) {
	t.Parallel()

	srv := ordersRouter(&fakeOrderReader{orders: map[string]orders.Order{"ord-1": storedOrder()}})

	req := httptest.NewRequest(http.MethodGet, "/orders/ord-1", nil)
	req.Header.Set("X-Store-Id", "store-b")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListOrdersByEmail(t *testing.T) {
	t.Parallel()

	srv := ordersRouter(&fakeOrderReader{orders: map[string]orders.Order{"ord-1": storedOrder()}})

	req := httptest.NewRequest(http.MethodGet, "/orders?email=buyer@example.com", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Orders []orders.Order `json:"orders"`
		Count  int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, 50, resp.Orders[0].Progress)
}

func TestListOrdersRequiresEmail(t *testing.T) {
	t.Parallel()

	srv := ordersRouter(&fakeOrderReader{})

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
