package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cartpulse/order-tracker/internal/apperr"
	"github.com/cartpulse/order-tracker/internal/logx"
	"github.com/cartpulse/order-tracker/internal/orders"
	"github.com/cartpulse/order-tracker/internal/timeline"
)

type ProductStore interface {
	Create(ctx context.Context, p orders.Product) error
	GetByID(ctx context.Context, id string) (orders.Product, error)
	ListByStore(ctx context.Context, storeID string) ([]orders.Product, error)
	Update(ctx context.Context, p orders.Product) error
	SoftDelete(ctx context.Context, id string) error
}

type ProductsHandler struct {
	Repo ProductStore
	// WebhookBaseURL prefixes the per-product webhook endpoint handed
	// back to the store on creation.
	WebhookBaseURL string
}

type CreateProductReq struct {
	DisplayName string                  `json:"displayName"`
	Image       string                  `json:"image"`
	Description string                  `json:"description"`
	CustomSteps []timeline.StepTemplate `json:"customSteps"`
}

type CreateProductResp struct {
	ProductID  string `json:"productId"`
	WebhookURL string `json:"webhookUrl"`
}

type UpdateProductReq struct {
	DisplayName *string                 `json:"displayName"`
	Image       *string                 `json:"image"`
	Description *string                 `json:"description"`
	CustomSteps []timeline.StepTemplate `json:"customSteps"`
}

func (h *ProductsHandler) Register(r *chi.Mux) {
	r.Post("/products", h.createProduct)
	r.Get("/products", h.listProducts)
	r.Put("/products/{id}", h.updateProduct)
	r.Delete("/products/{id}", h.deleteProduct)
}

func (h *ProductsHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	sid := storeID(r)
	if sid == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing store identity"})
		return
	}

	var req CreateProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, fmt.Errorf("%w: invalid json", apperr.ErrInvalidPayload))
		return
	}
	if req.DisplayName == "" || req.CustomSteps == nil {
		writeErr(w, fmt.Errorf("%w: displayName and customSteps are required (image is optional)", apperr.ErrValidationFailed))
		return
	}

	// Template is validated but stored unprocessed: durations stay relative.
	if res := timeline.ValidateTemplate(req.CustomSteps); !res.Valid {
		writeErr(w, res.Err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := uuid.NewString()
	p := orders.Product{
		ID:          id,
		StoreID:     sid,
		DisplayName: req.DisplayName,
		Image:       req.Image,
		Description: req.Description,
		CustomSteps: req.CustomSteps,
		WebhookURL:  fmt.Sprintf("%s/webhookReceiver?productId=%s&storeId=%s", h.WebhookBaseURL, id, sid),
		Active:      true,
	}
	if err := h.Repo.Create(ctx, p); err != nil {
		logx.FromContext(r.Context()).Errorw("create product", "err", err)
		writeErr(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateProductResp{ProductID: id, WebhookURL: p.WebhookURL})
}

func (h *ProductsHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	sid := storeID(r)
	if sid == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing store identity"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Repo.ListByStore(ctx, sid)
	if err != nil {
		writeErr(w, err)
		return
	}
	if ps == nil {
		ps = []orders.Product{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": ps, "count": len(ps)})
}

func (h *ProductsHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	sid := storeID(r)
	if sid == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing store identity"})
		return
	}
	id := chi.URLParam(r, "id")

	var req UpdateProductReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, fmt.Errorf("%w: invalid json", apperr.ErrInvalidPayload))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if p.StoreID != sid {
		writeErr(w, apperr.ErrOwnershipMismatch)
		return
	}

	if req.DisplayName != nil {
		p.DisplayName = *req.DisplayName
	}
	if req.Image != nil {
		p.Image = *req.Image
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.CustomSteps != nil {
		// Revalidated, not recompiled: existing orders keep the timeline
		// they were ingested with.
		if res := timeline.ValidateTemplate(req.CustomSteps); !res.Valid {
			writeErr(w, res.Err)
			return
		}
		p.CustomSteps = req.CustomSteps
	}

	if err := h.Repo.Update(ctx, p); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *ProductsHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	sid := storeID(r)
	if sid == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing store identity"})
		return
	}
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if p.StoreID != sid {
		writeErr(w, apperr.ErrOwnershipMismatch)
		return
	}

	if err := h.Repo.SoftDelete(ctx, id); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
