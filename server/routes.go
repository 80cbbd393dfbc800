package server

func (s *Server) initRoutes() {
	// Card SSO flow
	s.RegisterRouteHandler("GET "+RouteChallenge, ChainMiddleware(s.ChallengeHandler(), s.ChallengeMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteCardResponse, ChainMiddleware(s.CardResponseHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthorize, ChainMiddleware(s.AuthorizeHandler(), s.APIMiddleware()...))

	// Token lifecycle
	s.RegisterRouteHandler("POST "+RouteToken, ChainMiddleware(s.TokenHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteRefreshToken, ChainMiddleware(s.RefreshTokenHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))

	// App trust domain
	s.RegisterRouteHandler("POST "+RouteAppLogin, ChainMiddleware(s.AppLoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAppRefreshToken, ChainMiddleware(s.AppRefreshTokenHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAppLogout, ChainMiddleware(s.AppLogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAppRegisterCard, ChainMiddleware(s.RegisterCardHandler(), s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
}
