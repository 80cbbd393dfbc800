package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Web SSO routes (browser + third-party services)
	RouteChallenge    = "/api/v1/challenge"
	RouteCardResponse = "/api/v1/card-response"
	RouteAuthorize    = "/api/v1/authorize"
	RouteToken        = "/api/v1/token"
	RouteRefreshToken = "/api/v1/refresh-token"
	RouteLogout       = "/api/v1/logout"

	// App routes (mobile app trust domain)
	RouteAppLogin        = "/app/v1/login"
	RouteAppRefreshToken = "/app/v1/refresh-token"
	RouteAppLogout       = "/app/v1/logout"
	RouteAppRegisterCard = "/app/v1/register-card"

	// Operational routes
	RouteHealth = "/healthz"
)

// SessionCookieName is the browser cookie carrying the SSO session id.
const SessionCookieName = "s_id"
