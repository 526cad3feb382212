package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"watchstore/internal/config"
	"watchstore/internal/db"
	"watchstore/internal/httpserver"
	cartrepo "watchstore/internal/repository/cart"
	productrepo "watchstore/internal/repository/product"
	promotionrepo "watchstore/internal/repository/promotion"
	cartsvc "watchstore/internal/service/cart"
	productsvc "watchstore/internal/service/product"
	promotionsvc "watchstore/internal/service/promotion"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBMaxConns)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	productRepo := productrepo.NewPostgres(dbpool, logger)
	cartRepo := cartrepo.NewPostgres(dbpool)
	promotionRepo := promotionrepo.NewPostgres(dbpool, logger)

	cartService := cartsvc.New(cartRepo, productRepo)
	productService := productsvc.New(productRepo)
	promotionService := promotionsvc.New(promotionRepo, logger)

	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.PromotionSweepSpec, func() {
		_ = promotionService.ArchiveExpired(context.Background())
	}); err != nil {
		logger.Fatalf("schedule promotion sweep: %v", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	srv := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Carts:      cartService,
		Products:   productService,
		Promotions: promotionService,
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
