// Package nav maps a session role onto the screens it may open. Route sets
// are disjoint per role and unknown roles always resolve to the guest set,
// never to an elevated one.
package nav

import "github.com/provistock/provistock/internal/session"

// Route identifies a dashboard screen.
type Route string

const (
	RouteLogin          Route = "/login"
	RouteUsers          Route = "/users"
	RouteProvinces      Route = "/provinces"
	RouteManageStocks   Route = "/manage-stocks"
	RouteProvinceStocks Route = "/province-stocks"
	RouteSendOrders     Route = "/send-orders"
	RouteReceiveOrders  Route = "/receive-orders"
	RouteAllOrders      Route = "/orders"
	RouteMyStocks       Route = "/stocks"
	RouteSaleOrders     Route = "/sale-orders"
	RouteMyOrders       Route = "/my-orders"
	RouteBalance        Route = "/balance"
)

// RouteSet is the screens one role may open plus its landing page.
type RouteSet struct {
	Landing Route
	Routes  []Route
}

// Allows reports whether the set contains the route.
func (rs RouteSet) Allows(route Route) bool {
	for _, r := range rs.Routes {
		if r == route {
			return true
		}
	}
	return false
}

var (
	guestRoutes = RouteSet{
		Landing: RouteLogin,
		Routes:  []Route{RouteLogin},
	}
	adminRoutes = RouteSet{
		Landing: RouteUsers,
		Routes:  []Route{RouteUsers, RouteProvinces, RouteManageStocks, RouteAllOrders},
	}
	provinceRoutes = RouteSet{
		Landing: RouteProvinceStocks,
		Routes:  []Route{RouteProvinceStocks, RouteManageStocks, RouteSendOrders, RouteReceiveOrders, RouteAllOrders},
	}
	customerRoutes = RouteSet{
		Landing: RouteMyStocks,
		Routes:  []Route{RouteMyStocks, RouteSaleOrders, RouteMyOrders, RouteBalance},
	}
)

// Resolve returns the route set for a role. Anything unknown is a guest.
func Resolve(role session.Role) RouteSet {
	switch role {
	case session.RoleAdmin:
		return adminRoutes
	case session.RoleUser:
		return provinceRoutes
	case session.RoleCustomer:
		return customerRoutes
	default:
		return guestRoutes
	}
}

// Landing returns the default screen after login for the session.
func Landing(sess *session.Session) Route {
	return Resolve(sess.Role()).Landing
}

// CanOpen reports whether the session may open the route. Guests can only
// reach the login screen; everything else redirects there.
func CanOpen(sess *session.Session, route Route) bool {
	return Resolve(sess.Role()).Allows(route)
}
