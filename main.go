// main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"farm-store/controllers"
	"farm-store/middleware"
	"farm-store/repository"
	"farm-store/routes"
	"farm-store/utils"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Proceeding with environment variables.")
	}

	cfg, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := utils.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to MongoDB
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	client, err := utils.ConnectDB(connectCtx, cfg.MongoURI)
	cancel()
	if err != nil {
		logger.Fatal("mongo connect failed", zap.Error(err))
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Error("mongo disconnect failed", zap.Error(err))
		}
	}()

	store := repository.NewMongo(client.Database(cfg.MongoDatabase))
	indexCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = store.EnsureIndexes(indexCtx)
	cancel()
	if err != nil {
		logger.Fatal("index creation failed", zap.Error(err))
	}

	mailer, err := utils.NewMailer(cfg)
	if err != nil {
		logger.Fatal("mailer", zap.Error(err))
	}

	tokens := utils.NewTokenIssuer(cfg.JWTSecret)
	sessions := middleware.NewSessionManager(
		middleware.NewCookieStore(cfg.SessionSecret, cfg.CookieSecure), tokens, logger)

	// Initialize controllers
	c := routes.Controllers{
		Users:    controllers.NewUserController(store, tokens, sessions, logger),
		Products: controllers.NewProductController(store, logger),
		Cart:     controllers.NewCartController(store, logger, cfg.CookieSecure),
		Orders:   controllers.NewOrderController(store, store, mailer, logger, cfg.OrderNotifyEmail, cfg.CookieSecure),
		Expenses: controllers.NewExpenseController(store, logger),
	}

	// Set up the router
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger(logger))
	routes.RegisterRoutes(router, sessions, c)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server is running", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
