package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/snowflake"

	"watchstore/internal/cartclient"
	"watchstore/internal/config"
	"watchstore/internal/guestcart"
	"watchstore/internal/identity"
	"watchstore/internal/storefront"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[storefront] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	guests, err := guestcart.Open(cfg.GuestCartPath, logger)
	if err != nil {
		logger.Fatalf("open guest cart store: %v", err)
	}
	defer guests.Close()

	node, err := snowflake.NewNode(1)
	if err != nil {
		logger.Fatalf("init id generator: %v", err)
	}

	api := cartclient.New(cfg.CartAPIBaseURL, cfg.APITimeout, logger)
	registry := storefront.NewRegistry(identity.New(), api, guests, node, logger)
	srv := storefront.NewServer(cfg.StorefrontAddr, registry, logger)

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting storefront server on %s", cfg.StorefrontAddr)
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
