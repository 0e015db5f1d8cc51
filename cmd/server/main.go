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

	"paygate-be/internal/api"
	"paygate-be/internal/click"
	"paygate-be/internal/config"
	"paygate-be/internal/logger"
	"paygate-be/internal/metrics"
	"paygate-be/internal/middleware"
	"paygate-be/internal/notify"
	"paygate-be/internal/order"
	"paygate-be/internal/payme"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	store := order.NewMemoryStore()
	notifier := notify.NewTelegramNotifier(cfg.TelegramBotToken)

	router := newRouter(cfg, store, notifier)

	srv := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.L().Info("server running", zap.String("port", cfg.AppPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.L().Error("shutdown failed", zap.Error(err))
	}
}

func newRouter(cfg *config.Config, store order.Store, notifier notify.Notifier) *chi.Mux {
	dispatcher := notify.NewDispatcher(store, notifier)

	clickStats := &metrics.GatewayStats{}
	paymeStats := &metrics.GatewayStats{}

	clickHandler := click.NewHandler(store, dispatcher, cfg.ClickSecretKey, clickStats)
	paymeHandler := payme.NewHandler(store, dispatcher, cfg.PaymeKey, paymeStats)
	apiHandler := api.NewHandler(store, cfg, clickStats, paymeStats)

	r := chi.NewRouter()
	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(middleware.RateLimitMiddleware)

	r.Get("/health", apiHandler.Health)
	r.Get("/api/new-order", apiHandler.NewOrder)
	r.Get("/api/checkout-url", apiHandler.CheckoutURL)
	r.Get("/api/click-url", apiHandler.ClickURL)

	r.Post("/click/callback", clickHandler.Callback)
	r.Post("/payme", paymeHandler.Callback)
	// the sandbox occasionally posts JSON-RPC to the root path
	r.Post("/", paymeHandler.Callback)

	r.NotFound(api.NotFound)

	return r
}
