package server

// Route path constants
// All dashboard routes are defined here to ensure consistency and prevent typos
const (
	RouteIndex = "/{$}"

	// Auth pages
	RouteLogin        = "/login"
	RouteRegister     = "/register"
	RouteLogout       = "/logout"
	RouteOAuthStart   = "/oauth/{provider}"
	RouteAuthCallback = "/auth/callback"

	// Protected pages
	RouteDashboard          = "/dashboard"
	RouteDashboardCustomers = "/dashboard/customers"

	// API Routes
	RouteAPISession = "/api/session"

	// Static Asset Routes (patterns)
	RouteStatic = "/static/{file}"
)
