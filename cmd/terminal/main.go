package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/spicepos/terminal/internal/backend"
	"github.com/spicepos/terminal/internal/cart"
	"github.com/spicepos/terminal/internal/catalog"
	"github.com/spicepos/terminal/internal/config"
	"github.com/spicepos/terminal/internal/docgen"
	"github.com/spicepos/terminal/internal/holdqueue"
	"github.com/spicepos/terminal/internal/printer"
	"github.com/spicepos/terminal/internal/router"
	"github.com/spicepos/terminal/internal/service"
	"github.com/spicepos/terminal/internal/session"
	"github.com/spicepos/terminal/internal/ws"
)

func main() {
	cfg := config.Load()

	client := backend.New(cfg.BackendURL)

	cat := catalog.New(client)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := cat.Refresh(ctx); err != nil {
		// The backend may still be coming up; the catalog refresh endpoint
		// covers the retry.
		log.Printf("ERROR: initial catalog refresh: %v", err)
	}
	cancel()

	hub := ws.NewHub()
	go hub.Run()

	dispatcher := printer.NewDispatcher(printer.NewSpoolSink(cfg.SpoolDir), cfg.PrintDelay)

	orders := service.NewOrderService(
		client,
		cart.NewRegistry(),
		cat,
		session.NewManager(client),
		holdqueue.New(),
		docgen.New(),
		dispatcher,
		hub,
	)

	r := router.New(cfg, client, cat, orders, hub)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting terminal service on %s (backend %s)", addr, cfg.BackendURL)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal(err)
	}
}
