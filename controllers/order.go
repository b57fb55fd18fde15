package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"farm-store/cart"
	"farm-store/checkout"
	"farm-store/models"
	"farm-store/repository"
	"farm-store/utils"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// checkoutTimeout covers the catalog read and both order writes
const checkoutTimeout = 10 * time.Second

// IdempotencyKeyHeader carries the order id of a submission. It is returned
// with a failed write and sent back on retry so the retry reuses the header.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderController handles checkout and the admin orders board
type OrderController struct {
	Orders        repository.OrderRepository
	Products      repository.ProductRepository
	Mailer        utils.Mailer
	Logger        *zap.Logger
	NotifyEmail   string
	SecureCookies bool
}

// NewOrderController creates a new OrderController
func NewOrderController(orders repository.OrderRepository, products repository.ProductRepository, mailer utils.Mailer, logger *zap.Logger, notifyEmail string, secureCookies bool) *OrderController {
	return &OrderController{
		Orders:        orders,
		Products:      products,
		Mailer:        mailer,
		Logger:        logger,
		NotifyEmail:   notifyEmail,
		SecureCookies: secureCookies,
	}
}

// Checkout places an order from the shopper's cart cookie
func (oc *OrderController) Checkout(w http.ResponseWriter, r *http.Request) {
	var details models.CustomerDetails
	if err := decode(r, &details); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}
	oc.submit(w, r, cart.FromRequest(w, r, oc.SecureCookies, oc.Logger), details)
}

type walkInRequest struct {
	Customer models.CustomerDetails `json:"customer"`
	Items    []struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
}

// CreateWalkInOrder places an order entered by an admin. The cart lives only
// for the request.
func (oc *OrderController) CreateWalkInOrder(w http.ResponseWriter, r *http.Request) {
	var req walkInRequest
	if err := decode(r, &req); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}
	// repeated picks of one product become a single line
	items := make([]cart.Item, 0, len(req.Items))
	index := make(map[string]int, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			continue
		}
		if i, ok := index[item.ProductID]; ok {
			items[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(items)
		items = append(items, cart.Item{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	oc.submit(w, r, cart.NewStore(nil, oc.Logger, items...), req.Customer)
}

func (oc *OrderController) submit(w http.ResponseWriter, r *http.Request, store *cart.Store, details models.CustomerDetails) {
	ctx, cancel := context.WithTimeout(r.Context(), checkoutTimeout)
	defer cancel()

	products, err := cartProducts(ctx, oc.Products, store)
	if err != nil {
		storageError(w, oc.Logger, err, "Error fetching products")
		return
	}

	flow := checkout.NewFlow(oc.Orders, store, oc.Logger)
	flow.OnSuccess = oc.notify
	if key := r.Header.Get(IdempotencyKeyHeader); key != "" {
		id, err := uuid.Parse(key)
		if err != nil {
			http.Error(w, "Invalid Idempotency-Key", http.StatusBadRequest)
			return
		}
		flow.UseOrderID(id.String())
	}
	sub, err := flow.Submit(ctx, details, products)
	if id := flow.PendingOrderID(); err != nil && id != "" {
		w.Header().Set(IdempotencyKeyHeader, id)
	}

	var verr *checkout.ValidationError
	var herr *checkout.HeaderInsertError
	var lerr *checkout.LineInsertError
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, sub)
	case errors.As(err, &verr):
		validationFailed(w, verr.Fields)
	case errors.As(err, &herr) && errors.Is(herr.Err, repository.ErrDuplicate):
		w.Header().Del(IdempotencyKeyHeader)
		http.Error(w, "Order id already used", http.StatusConflict)
	case errors.As(err, &herr):
		oc.Logger.Error("order header insert failed", zap.Error(herr.Err))
		http.Error(w, "Order Failed", http.StatusBadGateway)
	case errors.As(err, &lerr):
		http.Error(w, "Failed to save items", http.StatusBadGateway)
	case errors.Is(err, checkout.ErrInProgress):
		http.Error(w, "Checkout already in progress", http.StatusConflict)
	default:
		oc.Logger.Error("checkout failed", zap.Error(err))
		http.Error(w, "Order Failed", http.StatusInternalServerError)
	}
}

// notify emails the farm about a placed order without holding up the response
func (oc *OrderController) notify(sub *models.OrderSubmission) {
	if oc.Mailer == nil || oc.NotifyEmail == "" {
		return
	}
	subject, body := utils.NewOrderNotification(sub)
	go func() {
		if err := oc.Mailer.SendEmail(oc.NotifyEmail, subject, body); err != nil {
			oc.Logger.Warn("order notification not sent", zap.String("order_id", sub.OrderID), zap.Error(err))
		}
	}()
}

// GetOrders lists orders with their items, newest first
func (oc *OrderController) GetOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	orders, err := oc.Orders.ListOrders(ctx, repository.OrderFilter{
		Status: q.Get("status"),
		Search: q.Get("search"),
	})
	if err != nil {
		storageError(w, oc.Logger, err, "Error fetching orders")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// UpdateOrderStatus moves an order to processing or delivered
func (oc *OrderController) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}
	if err := utils.ValidateVar(req.Status, "oneof=processing delivered"); err != nil {
		validationFailed(w, map[string]string{"status": "Must be one of: processing, delivered"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	id := mux.Vars(r)["id"]
	if err := oc.Orders.UpdateOrderStatus(ctx, id, req.Status); err != nil {
		storageError(w, oc.Logger, err, "Error updating order")
		return
	}
	oc.Logger.Info("order status updated", zap.String("order_id", id), zap.String("status", req.Status))
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": req.Status})
}

// DeleteOrderItem removes a single line from an order
func (oc *OrderController) DeleteOrderItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := oc.Orders.DeleteOrderItem(ctx, mux.Vars(r)["id"]); err != nil {
		storageError(w, oc.Logger, err, "Error deleting order item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
