package controllers

import (
	"context"
	"net/http"

	"farm-store/cart"
	"farm-store/models"
	"farm-store/repository"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartController serves the cookie backed shopping cart
type CartController struct {
	Products      repository.ProductRepository
	Logger        *zap.Logger
	SecureCookies bool
}

// NewCartController creates a new CartController
func NewCartController(products repository.ProductRepository, logger *zap.Logger, secureCookies bool) *CartController {
	return &CartController{Products: products, Logger: logger, SecureCookies: secureCookies}
}

type cartLine struct {
	Product   models.Product `json:"product"`
	Quantity  int            `json:"quantity"`
	LineTotal string         `json:"line_total"`
}

type cartView struct {
	Items      []cartLine `json:"items"`
	TotalItems int        `json:"total_items"`
	TotalPrice string     `json:"total_price"`
}

func newCartView(store *cart.Store, products []models.Product) cartView {
	lines := store.Snapshot(products)
	view := cartView{
		Items:      make([]cartLine, 0, len(lines)),
		TotalItems: store.TotalItems(),
		TotalPrice: cart.FormatPrice(cart.Total(lines)),
	}
	for _, line := range lines {
		view.Items = append(view.Items, cartLine{
			Product:   line.Product,
			Quantity:  line.Quantity,
			LineTotal: cart.FormatPrice(line.Subtotal()),
		})
	}
	return view
}

// cartProducts loads the catalog entries referenced by store
func cartProducts(ctx context.Context, products repository.ProductRepository, store *cart.Store) ([]models.Product, error) {
	if store.Len() == 0 {
		return nil, nil
	}
	items := store.Items()
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	return products.ListProducts(ctx, repository.ProductFilter{IDs: ids})
}

func (cc *CartController) render(w http.ResponseWriter, r *http.Request, store *cart.Store) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	products, err := cartProducts(ctx, cc.Products, store)
	if err != nil {
		storageError(w, cc.Logger, err, "Error fetching cart")
		return
	}
	writeJSON(w, http.StatusOK, newCartView(store, products))
}

// GetCart returns the cart joined with the current catalog
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	cc.render(w, r, cart.FromRequest(w, r, cc.SecureCookies, cc.Logger))
}

// AddToCart increments the quantity of a catalog product by one
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if err := decode(r, &req); err != nil || req.ProductID == "" {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if _, err := cc.Products.GetProduct(ctx, req.ProductID); err != nil {
		storageError(w, cc.Logger, err, "Error fetching product")
		return
	}

	store := cart.FromRequest(w, r, cc.SecureCookies, cc.Logger)
	store.Add(req.ProductID)
	cc.render(w, r, store)
}

// UpdateQuantity sets the quantity of a cart entry. Zero removes it.
func (cc *CartController) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity *int `json:"quantity"`
	}
	if err := decode(r, &req); err != nil || req.Quantity == nil || *req.Quantity < 0 {
		http.Error(w, "Invalid quantity", http.StatusBadRequest)
		return
	}

	store := cart.FromRequest(w, r, cc.SecureCookies, cc.Logger)
	store.SetQuantity(mux.Vars(r)["product_id"], *req.Quantity)
	cc.render(w, r, store)
}

// RemoveFromCart deletes a cart entry
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	store := cart.FromRequest(w, r, cc.SecureCookies, cc.Logger)
	store.Remove(mux.Vars(r)["product_id"])
	cc.render(w, r, store)
}

// ClearCart empties the cart
func (cc *CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	store := cart.FromRequest(w, r, cc.SecureCookies, cc.Logger)
	store.Clear()
	writeJSON(w, http.StatusOK, cartView{Items: []cartLine{}, TotalPrice: cart.FormatPrice(decimal.Zero)})
}
