package controllers

import (
	"context"
	"net/http"
	"strconv"

	"farm-store/models"
	"farm-store/repository"
	"farm-store/utils"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ProductController handles product-related requests
type ProductController struct {
	Products repository.ProductRepository
	Logger   *zap.Logger
}

// NewProductController creates a new ProductController
func NewProductController(products repository.ProductRepository, logger *zap.Logger) *ProductController {
	return &ProductController{Products: products, Logger: logger}
}

// GetProducts lists the catalog, optionally filtered by category, name search
// and stock
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.ProductFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
	}
	if v := q.Get("in_stock"); v != "" {
		inStock, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "Invalid in_stock filter", http.StatusBadRequest)
			return
		}
		filter.InStock = &inStock
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	products, err := pc.Products.ListProducts(ctx, filter)
	if err != nil {
		storageError(w, pc.Logger, err, "Error fetching products")
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

// GetProductByID retrieves a single product
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	product, err := pc.Products.GetProduct(ctx, mux.Vars(r)["id"])
	if err != nil {
		storageError(w, pc.Logger, err, "Error fetching product")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// CreateProduct adds a product to the catalog (Admin only)
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := decode(r, &product); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}
	if fields := utils.ValidateStruct(product, nil); fields != nil {
		validationFailed(w, fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	id, err := pc.Products.CreateProduct(ctx, &product)
	if err != nil {
		storageError(w, pc.Logger, err, "Error creating product")
		return
	}
	product.ID = id
	pc.Logger.Info("product created", zap.String("product_id", id), zap.String("name", product.Name))
	writeJSON(w, http.StatusCreated, product)
}

// UpdateProduct changes the price and stock flag of a product (Admin only)
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var update models.StockUpdate
	if err := decode(r, &update); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}
	if fields := utils.ValidateStruct(update, nil); fields != nil {
		validationFailed(w, fields)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	id := mux.Vars(r)["id"]
	if err := pc.Products.UpdateProductStock(ctx, id, update.Price, update.InStock); err != nil {
		storageError(w, pc.Logger, err, "Error updating product")
		return
	}
	product, err := pc.Products.GetProduct(ctx, id)
	if err != nil {
		storageError(w, pc.Logger, err, "Error fetching product")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// DeleteProduct removes a product from the catalog (Admin only)
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	if err := pc.Products.DeleteProduct(ctx, mux.Vars(r)["id"]); err != nil {
		storageError(w, pc.Logger, err, "Error deleting product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
