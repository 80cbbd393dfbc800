// Package server is the protocol orchestrator: it wires the HTTP surface to
// the challenge, verification, session, code and token managers. Handlers are
// stateless; every precondition failure stops the flow at the first error.
package server

import (
	"net/http"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/ospass/ospass-server/auth"
	"github.com/ospass/ospass-server/authcode"
	"github.com/ospass/ospass-server/challenge"
	"github.com/ospass/ospass-server/clients"
	"github.com/ospass/ospass-server/events"
	"github.com/ospass/ospass-server/instrumentation"
	"github.com/ospass/ospass-server/internal/config"
	"github.com/ospass/ospass-server/sessions"
	"github.com/ospass/ospass-server/token"
	"github.com/ospass/ospass-server/users"
)

// Deps carries the collaborators the orchestrator sequences.
type Deps struct {
	Verifier   *auth.Service
	Challenges *challenge.Manager
	Sessions   *sessions.Manager
	Codes      *authcode.Manager
	Tokens     *token.Manager
	Clients    clients.Repo
	Users      users.Repo
	Publisher  events.Publisher
	Metrics    *instrumentation.Metrics
}

type Server struct {
	env    string
	mux    *http.ServeMux
	routes []string
	config config.Config

	verifier   *auth.Service
	challenges *challenge.Manager
	sessions   *sessions.Manager
	codes      *authcode.Manager
	tokens     *token.Manager
	clients    clients.Repo
	users      users.Repo
	publisher  events.Publisher
	metrics    *instrumentation.Metrics

	limiters     map[string]*rate.Limiter
	limitersLock sync.Mutex
}

func New(config config.Config, deps Deps) (*Server, error) {
	if deps.Verifier == nil {
		return nil, errors.New("[server.New] verifier is required")
	}
	if deps.Challenges == nil {
		return nil, errors.New("[server.New] challenge manager is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("[server.New] session manager is required")
	}
	if deps.Codes == nil {
		return nil, errors.New("[server.New] code manager is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("[server.New] token manager is required")
	}
	if deps.Clients == nil {
		return nil, errors.New("[server.New] client repo is required")
	}
	if deps.Users == nil {
		return nil, errors.New("[server.New] user repo is required")
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}

	s := &Server{
		mux:        http.NewServeMux(),
		config:     config,
		verifier:   deps.Verifier,
		challenges: deps.Challenges,
		sessions:   deps.Sessions,
		codes:      deps.Codes,
		tokens:     deps.Tokens,
		clients:    deps.Clients,
		users:      deps.Users,
		publisher:  deps.Publisher,
		metrics:    deps.Metrics,
		limiters:   make(map[string]*rate.Limiter),
	}
	s.env = config.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			log.Info().Str("method", parts[0]).Str("path", parts[1]).Msg("route")
		} else {
			log.Info().Str("path", parts[0]).Msg("route")
		}
	}
}
