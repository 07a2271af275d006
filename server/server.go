package server

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-account-dashboard/internal/config"
	"github.com/jrsteele09/go-account-dashboard/server/oauthflow"
	"github.com/jrsteele09/go-account-dashboard/server/routeguard"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	guard     *routeguard.Guard
	flows     oauthflow.Repo
	validate  *validator.Validate
	templates map[string]*template.Template

	// transport carries backend calls; nil means http.DefaultTransport
	transport http.RoundTripper
}

type Option func(*Server)

// WithTransport routes backend calls through rt
func WithTransport(rt http.RoundTripper) Option {
	return func(s *Server) {
		s.transport = rt
	}
}

func New(config config.Config, flows oauthflow.Repo, opts ...Option) (*Server, error) {
	s := &Server{
		env:      config.GetEnv(),
		mux:      http.NewServeMux(),
		config:   config,
		guard:    routeguard.New(config),
		flows:    flows,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(s)
	}

	templates, err := parseTemplates(pageTemplates...)
	if err != nil {
		return nil, fmt.Errorf("[Server New] %w", err)
	}
	s.templates = templates

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

// ServeHTTP runs the route guard ahead of routing so that every protected
// path is gated, including ones no handler serves
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.guard.Middleware(s.mux.ServeHTTP)(w, r)
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
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	logError(r.Method, r.URL.Path, err.Error())
	http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

func logError(method, path, error string) {
	log.Error().Msgf("[%-19s] %s %s", colourMethod(method), path, Red+error+ResetColor)
}
