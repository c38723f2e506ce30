// Command provistock is a console rendition of the province stock
// dashboard: it signs in, resolves the screens the account's role is
// allowed to open, and prints the matching tables.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/redis/go-redis/v9"

	"github.com/provistock/provistock/internal/api"
	"github.com/provistock/provistock/internal/app"
	"github.com/provistock/provistock/internal/auth"
	"github.com/provistock/provistock/internal/nav"
	"github.com/provistock/provistock/internal/orders"
	"github.com/provistock/provistock/internal/provinces"
	"github.com/provistock/provistock/internal/session"
	"github.com/provistock/provistock/internal/stock"
	"github.com/provistock/provistock/internal/stockreq"
	"github.com/provistock/provistock/internal/transactions"
	"github.com/provistock/provistock/internal/users"
)

func main() {
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "account password")
	flag.Parse()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: provistock -email <email> -password <password>")
		os.Exit(2)
	}

	var sessionStore session.Store = session.NewMemoryStore()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		sessionStore = session.NewRedisStore(client, cfg.SessionTTL)
	}
	sessions := session.NewManager(sessionStore)

	client := api.New(cfg.APIBaseURL, cfg.HTTPTimeout, logger)
	authService := auth.NewService(client, sessions)
	userService := users.NewService(client)
	provinceService := provinces.NewService(client)
	stockService := stock.NewService(client, api.RouteStocks)
	requestService := stockreq.NewService(client, stockService.Store(), logger)
	orderService := orders.NewService(client, userService.Store(), stockService.Store(), logger)
	ledgerService := transactions.NewService(client)

	refreshStocks := func(ctx context.Context, sess *session.Session) error {
		switch sess.Role() {
		case session.RoleCustomer:
			_, err := stockService.FetchCustomerStocks(ctx, sess, sess.User.ID, 0)
			return err
		case session.RoleUser:
			_, err := stockService.FetchProvinceStocks(ctx, sess, sess.User.ProvinceID)
			return err
		}
		return nil
	}
	orderService.SetStockRefresh(refreshStocks)
	requestService.SetStockRefresh(refreshStocks)

	ctx := context.Background()
	sess, err := authService.Login(ctx, *email, *password)
	if err != nil {
		logger.Error("login", slog.Any("error", err))
		os.Exit(1)
	}
	routes := nav.Resolve(sess.Role())
	fmt.Printf("signed in as %s (%s), landing at %s\n\n", sess.User.Name, sess.User.Role, routes.Landing)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	if routes.Allows(nav.RouteProvinces) {
		if list, err := provinceService.Fetch(ctx, sess); err == nil {
			fmt.Fprintln(w, "PROVINCE\tCODE")
			for _, p := range list {
				fmt.Fprintf(w, "%s\t%s\n", p.Name, p.Code)
			}
			fmt.Fprintln(w)
		}
	}
	if routes.Allows(nav.RouteUsers) {
		if list, err := userService.Fetch(ctx, sess, ""); err == nil {
			fmt.Fprintln(w, "USER\tEMAIL\tROLE\tPROVINCE")
			for _, u := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", u.Name, u.Email, u.Role, u.ProvinceID)
			}
			fmt.Fprintln(w)
		}
	}
	if routes.Allows(nav.RouteMyStocks) {
		if list, err := stockService.FetchCustomerStocks(ctx, sess, sess.User.ID, 0); err == nil {
			fmt.Fprintln(w, "ITEM\tQTY\tUNIT\tPROVINCE")
			for _, s := range list {
				fmt.Fprintf(w, "%s\t%d\t%s\t%d\n", s.ItemType, s.Quantity, s.Unit, s.ProvinceID)
			}
			fmt.Fprintln(w)
		}
	}
	if routes.Allows(nav.RouteProvinceStocks) {
		if list, err := stockService.FetchProvinceStocks(ctx, sess, sess.User.ProvinceID); err == nil {
			fmt.Fprintln(w, "CUSTOMER\tITEM\tQTY\tUNIT")
			for _, s := range list {
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", s.CustomerID, s.ItemType, s.Quantity, s.Unit)
			}
			fmt.Fprintln(w)
		}
	}
	if routes.Allows(nav.RouteManageStocks) && sess.Role() == session.RoleUser {
		if list, err := requestService.Fetch(ctx, sess, sess.User.ProvinceID, ""); err == nil {
			fmt.Fprintln(w, "REQUEST\tTYPE\tITEM\tQTY\tSTATUS")
			for _, req := range list {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", req.ID, req.Type, req.Item, req.Quantity, req.Status)
			}
			fmt.Fprintln(w)
		}
	}
	if routes.Allows(nav.RouteReceiveOrders) {
		if err := orderService.FetchReceived(ctx, sess); err == nil {
			fmt.Fprintln(w, "ORDER\tTYPE\tITEM\tQTY\tSTATUS")
			for _, o := range orderService.Received().List() {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", o.ID, o.Type, o.Item, o.Quantity, o.Status)
			}
			fmt.Fprintln(w)
		}
	}
	if routes.Allows(nav.RouteMyOrders) {
		if err := orderService.FetchSent(ctx, sess); err == nil {
			fmt.Fprintln(w, "ORDER\tTYPE\tITEM\tQTY\tSTATUS")
			for _, o := range orderService.Sent().List() {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", o.ID, o.Type, o.Item, o.Quantity, o.Status)
			}
			fmt.Fprintln(w)
		}
	}
	if routes.Allows(nav.RouteBalance) {
		if list, err := ledgerService.Fetch(ctx, sess); err == nil {
			fmt.Fprintln(w, "TRANSACTION\tAMOUNT\tSTATUS")
			for _, t := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\n", t.Type, ledgerService.FormatAmount(t.Amount), t.Status)
			}
			fmt.Fprintln(w)
		}
	}

	if err := authService.Logout(ctx); err != nil {
		logger.Warn("logout", slog.Any("error", err))
	}
}
