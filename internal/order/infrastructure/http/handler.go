package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Stealz-com/order/internal/order/application"
	"github.com/Stealz-com/order/internal/order/domain"
	"github.com/Stealz-com/order/pkg/idempotency"
	"github.com/Stealz-com/order/pkg/metrics"
)

const (
	userIDHeader    = "X-User-Id"
	fallbackMessage = "Oops! Something went wrong, please order after some time!"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	place   *gobreaker.CircuitBreaker[string]
	idem    *idempotency.Store
	metrics *metrics.ServerMetrics
	tracer  trace.Tracer
}

// NewHandler wires the order routes. idem and m may be nil; the matching
// features are then disabled.
func NewHandler(log *slog.Logger, service *application.Service, place *gobreaker.CircuitBreaker[string], idem *idempotency.Store, m *metrics.ServerMetrics) *Handler {
	return &Handler{
		log:     log,
		service: service,
		place:   place,
		idem:    idem,
		metrics: m,
		tracer:  otel.Tracer("order-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/ping", h.ping)
	r.Post("/", h.placeOrder)
	r.Get("/", h.listOrders)
	r.Get("/{id}", h.getOrder)
	r.Patch("/{id}/status", h.updateStatus)
	r.Get("/{id}/tracking", h.getTracking)
	return r
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Order Service is Up!"})
}

type placeOrderRequest struct {
	UserID          string          `json:"userId"`
	Email           string          `json:"email"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	ShippingAddress *domain.Address `json:"shippingAddress"`
	OrderLineItems  []lineItemDTO   `json:"orderLineItemsDtoList"`
}

type lineItemDTO struct {
	SKUCode            string          `json:"skuCode"`
	Price              decimal.Decimal `json:"price"`
	Quantity           int             `json:"quantity"`
	CustomImageURL     string          `json:"customImageUrl"`
	OriginalImageURL   string          `json:"originalImageUrl"`
	DesignInstructions string          `json:"designInstructions"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PlaceOrder")
	defer span.End()

	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	idemKey := ""
	if h.idem != nil {
		if key := idempotency.Key(r); key != "" {
			idemKey = h.idem.RequestKey(req.UserID, key)
			seen, err := h.idem.Seen(ctx, idemKey)
			if err != nil {
				// Dedup is best-effort; a redis fault must not block orders.
				h.log.Error("idempotency lookup failed", "err", err)
			} else if seen {
				writeJSON(w, http.StatusOK, map[string]string{"message": "Order Placed Successfully"})
				return
			}
		}
	}

	items := make([]domain.LineItem, 0, len(req.OrderLineItems))
	for _, dto := range req.OrderLineItems {
		items = append(items, domain.LineItem{
			SKUCode:            dto.SKUCode,
			Price:              dto.Price,
			Quantity:           dto.Quantity,
			CustomImageURL:     dto.CustomImageURL,
			OriginalImageURL:   dto.OriginalImageURL,
			DesignInstructions: dto.DesignInstructions,
		})
	}

	orderNumber, err := h.place.Execute(func() (string, error) {
		return h.service.PlaceOrder(ctx, application.PlaceOrderRequest{
			UserID:          req.UserID,
			Email:           req.Email,
			TotalAmount:     req.TotalAmount,
			ShippingAddress: req.ShippingAddress,
			Items:           items,
		})
	})
	if err != nil {
		h.countRejection(err)
		h.writeError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.OrdersPlaced.Inc()
	}
	if idemKey != "" {
		if err := h.idem.Mark(ctx, idemKey); err != nil {
			h.log.Error("idempotency mark failed", "err", err)
		}
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message":     "Order Placed Successfully",
		"orderNumber": orderNumber,
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "missing " + userIDHeader + " header"})
		return
	}
	views, err := h.service.ListOrders(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]orderResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toOrderResponse(v))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	userID := r.Header.Get(userIDHeader)
	view, err := h.service.GetOrder(r.Context(), id, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(view))
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateOrderStatus")
	defer span.End()

	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	err := h.service.UpdateStatus(ctx, application.UpdateStatusRequest{
		OrderID:        id,
		Status:         domain.Status(q.Get("status")),
		TrackingNumber: q.Get("trackingNumber"),
		Carrier:        q.Get("carrier"),
		Message:        q.Get("message"),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "status updated"})
}

func (h *Handler) getTracking(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	userID := r.Header.Get(userIDHeader)
	view, err := h.service.GetTracking(r.Context(), id, userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	history := make([]statusHistoryDTO, 0, len(view.History))
	for _, entry := range view.History {
		history = append(history, statusHistoryDTO{
			Status:    entry.Status,
			Message:   entry.Message,
			CreatedAt: entry.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, trackingResponse{
		OrderID:        view.OrderID,
		OrderNumber:    view.OrderNumber,
		Status:         view.Status,
		TrackingNumber: view.TrackingNumber,
		Carrier:        view.Carrier,
		History:        history,
	})
}

type orderResponse struct {
	ID             int64               `json:"id"`
	OrderNumber    string              `json:"orderNumber"`
	Status         domain.Status       `json:"status"`
	TotalAmount    decimal.Decimal     `json:"totalAmount"`
	CreatedAt      time.Time           `json:"createdAt"`
	Items          []domain.PlacedItem `json:"items"`
	TrackingNumber string              `json:"trackingNumber,omitempty"`
	Carrier        string              `json:"carrier,omitempty"`
}

type trackingResponse struct {
	OrderID        int64              `json:"orderId"`
	OrderNumber    string             `json:"orderNumber"`
	Status         domain.Status      `json:"status"`
	TrackingNumber string             `json:"trackingNumber,omitempty"`
	Carrier        string             `json:"carrier,omitempty"`
	History        []statusHistoryDTO `json:"history"`
}

type statusHistoryDTO struct {
	Status    domain.Status `json:"status"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"createdAt"`
}

func toOrderResponse(v application.OrderView) orderResponse {
	return orderResponse{
		ID:             v.ID,
		OrderNumber:    v.OrderNumber,
		Status:         v.Status,
		TotalAmount:    v.TotalAmount,
		CreatedAt:      v.CreatedAt,
		Items:          v.Items,
		TrackingNumber: v.TrackingNumber,
		Carrier:        v.Carrier,
	}
}

func (h *Handler) orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid order id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": fallbackMessage})
	case errors.Is(err, application.ErrInvalidRequest):
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
	case errors.Is(err, application.ErrStockUnavailable):
		writeJSON(w, http.StatusConflict, map[string]string{"message": err.Error()})
	case errors.Is(err, application.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"message": err.Error()})
	case errors.Is(err, application.ErrUnauthorized):
		writeJSON(w, http.StatusForbidden, map[string]string{"message": err.Error()})
	default:
		// Dependency faults stay generic: no internal detail leaks out.
		h.log.Error("request failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": fallbackMessage})
	}
}

func (h *Handler) countRejection(err error) {
	if h.metrics == nil {
		return
	}
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		h.metrics.OrdersRejected.WithLabelValues("breaker_open").Inc()
	case errors.Is(err, application.ErrStockUnavailable):
		h.metrics.OrdersRejected.WithLabelValues("stock_unavailable").Inc()
	case errors.Is(err, application.ErrInvalidRequest):
		h.metrics.OrdersRejected.WithLabelValues("invalid_request").Inc()
	default:
		h.metrics.OrdersRejected.WithLabelValues("dependency_fault").Inc()
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
