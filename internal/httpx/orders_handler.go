package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/cartpulse/order-tracker/internal/orders"
	"github.com/cartpulse/order-tracker/internal/redisx"
	"github.com/cartpulse/order-tracker/internal/timeline"
)

type OrderStore interface {
	GetByID(ctx context.Context, id, storeID string) (orders.Order, error)
	ListByEmail(ctx context.Context, email string) ([]orders.Order, error)
}

// OrdersHandler serves evaluated order timelines. Progress is always
// recomputed from the stored absolute timeline against the current
// instant; the relative template is never re-parsed here.
type OrdersHandler struct {
	Repo  OrderStore
	Redis *redis.Client
	Now   func() time.Time
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders", h.listOrdersByEmail)
}

func (h *OrdersHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	sid := storeID(r)
	if sid == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing store identity"})
		return
	}
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// Evaluated-progress cache in front of the DB.
	key := fmt.Sprintf(redisx.KeyOrderProgress, orderID)
	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			var cached orders.Order
			if json.Unmarshal([]byte(s), &cached) == nil && cached.StoreID == sid {
				writeJSON(w, http.StatusOK, cached)
				return
			}
		}
	}

	o, err := h.Repo.GetByID(ctx, orderID, sid)
	if errors.Is(err, orders.ErrOrderNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	if err != nil {
		writeErr(w, err)
		return
	}

	evaluated := h.evaluate(o)
	if h.Redis != nil {
		b, _ := json.Marshal(evaluated)
		_ = h.Redis.Set(ctx, key, b, redisx.TTLProgressCache).Err()
	}
	writeJSON(w, http.StatusOK, evaluated)
}

func (h *OrdersHandler) listOrdersByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email query parameter is required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Repo.ListByEmail(ctx, email)
	if err != nil {
		writeErr(w, err)
		return
	}

	out := make([]orders.Order, 0, len(list))
	for _, o := range list {
		out = append(out, h.evaluate(o))
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": out, "count": len(out)})
}

func (h *OrdersHandler) evaluate(o orders.Order) orders.Order {
	p := timeline.Evaluate(o.CustomSteps, h.now())
	o.CustomSteps = p.Steps
	o.CurrentStepIndex = p.CurrentStepIndex
	o.Progress = p.Percent
	o.Status = orders.StatusFor(o.Status, p.Percent)
	return o
}
