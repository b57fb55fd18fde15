// routes/routes.go
package routes

import (
	"net/http"

	"farm-store/controllers"
	"farm-store/middleware"

	"github.com/gorilla/mux"
)

// Controllers groups the handlers mounted by RegisterRoutes
type Controllers struct {
	Users    *controllers.UserController
	Products *controllers.ProductController
	Cart     *controllers.CartController
	Orders   *controllers.OrderController
	Expenses *controllers.ExpenseController
}

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, sessions *middleware.SessionManager, c Controllers) {
	router.Use(sessions.Authenticate)

	// Public routes
	router.HandleFunc("/signup", c.Users.Register).Methods("POST")
	router.HandleFunc("/login", c.Users.Login).Methods("POST")
	router.HandleFunc("/logout", c.Users.Logout).Methods("POST")
	router.HandleFunc(middleware.LoginPath, c.Users.AuthPage).Methods("GET")
	router.HandleFunc(middleware.UnauthorizedPath, c.Users.UnauthorizedPage).Methods("GET")

	// Protected routes
	router.Handle("/profile", middleware.RequireAuth(http.HandlerFunc(c.Users.GetProfile))).Methods("GET")

	// Product routes
	router.HandleFunc("/products", c.Products.GetProducts).Methods("GET")
	router.HandleFunc("/products/{id}", c.Products.GetProductByID).Methods("GET")

	// Cart routes
	router.HandleFunc("/cart", c.Cart.GetCart).Methods("GET")
	router.HandleFunc("/cart", c.Cart.ClearCart).Methods("DELETE")
	router.HandleFunc("/cart/items", c.Cart.AddToCart).Methods("POST")
	router.HandleFunc("/cart/items/{product_id}", c.Cart.UpdateQuantity).Methods("PUT")
	router.HandleFunc("/cart/items/{product_id}", c.Cart.RemoveFromCart).Methods("DELETE")

	// Checkout
	router.HandleFunc("/checkout", c.Orders.Checkout).Methods("POST")

	// Admin routes
	admin := router.PathPrefix("/dashboard").Subrouter()
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/products", c.Products.GetProducts).Methods("GET")
	admin.HandleFunc("/products", c.Products.CreateProduct).Methods("POST")
	admin.HandleFunc("/products/{id}", c.Products.UpdateProduct).Methods("PUT")
	admin.HandleFunc("/products/{id}", c.Products.DeleteProduct).Methods("DELETE")
	admin.HandleFunc("/orders", c.Orders.GetOrders).Methods("GET")
	admin.HandleFunc("/orders", c.Orders.CreateWalkInOrder).Methods("POST")
	admin.HandleFunc("/orders/{id}/status", c.Orders.UpdateOrderStatus).Methods("PATCH")
	admin.HandleFunc("/order-items/{id}", c.Orders.DeleteOrderItem).Methods("DELETE")
	admin.HandleFunc("/expenses", c.Expenses.GetExpenses).Methods("GET")
	admin.HandleFunc("/expenses", c.Expenses.CreateExpense).Methods("POST")
}
