// Command stubapi runs the in-memory stand-in backend on its own, seeded
// with a small world, so the dashboard client can be pointed at something
// during local development.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/provistock/provistock/internal/app"
	"github.com/provistock/provistock/internal/provinces"
	"github.com/provistock/provistock/internal/session"
	"github.com/provistock/provistock/internal/stock"
	"github.com/provistock/provistock/internal/stub"
	"github.com/provistock/provistock/internal/users"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	state := stub.NewState(cfg.SessionTTL)
	seed(state)

	server := &http.Server{
		Addr:         cfg.StubAddr,
		Handler:      stub.New(state, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("stub backend listening", slog.String("addr", cfg.StubAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", slog.Any("error", err))
	}
}

func seed(state *stub.State) {
	kigali := state.SeedProvince(provinces.Province{Name: "Kigali", Code: "KGL"})
	east := state.SeedProvince(provinces.Province{Name: "Eastern", Code: "EST"})

	state.SeedUser(users.User{Name: "Admin", Email: "admin@provistock.local", Role: session.RoleAdmin}, "admin-password")
	state.SeedUser(users.User{Name: "Kigali Staff", Email: "kigali@provistock.local", Role: session.RoleUser, ProvinceID: kigali.ID}, "staff-password")
	state.SeedUser(users.User{Name: "Eastern Staff", Email: "eastern@provistock.local", Role: session.RoleUser, ProvinceID: east.ID}, "staff-password")
	customer := state.SeedUser(users.User{Name: "Customer", Email: "customer@provistock.local", Role: session.RoleCustomer}, "customer-password")

	state.SeedStock(stock.Stock{CustomerID: customer.ID, ItemType: "rice", Quantity: 50, Unit: "kg", ProvinceID: kigali.ID})
	state.SeedStock(stock.Stock{CustomerID: customer.ID, ItemType: "maize", Quantity: 120, Unit: "kg", ProvinceID: east.ID})
}
