package api

// Resource routes relative to the configured base URL. These mirror the
// backend's REST surface one to one.
const (
	RouteAuth          = "auth"
	RouteUsers         = "users"
	RouteStocks        = "stocks"
	RouteStockRequests = "stock-requests"
	RouteProvinces     = "provinces"
	RouteOrders        = "orders"
	RouteTransactions  = "transactions"
)
