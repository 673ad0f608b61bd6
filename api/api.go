// Package api exposes the aggregator over HTTP.
package api

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gnosisguild/enclave-aggregator/aggregator"
	"github.com/gnosisguild/enclave-aggregator/log"
)

// maxBodySize bounds wrap requests, the largest families carry tens of
// thousands of public inputs per proof.
const maxBodySize = 64 << 20

// APIConfig type represents the configuration for the API HTTP server.
type APIConfig struct {
	Host       string
	Port       int
	Aggregator *aggregator.Aggregator
}

// API type represents the API HTTP server.
type API struct {
	router *chi.Mux
	server *http.Server
	agg    *aggregator.Aggregator
}

// New creates a new API instance with the given configuration, binds the
// listen address and serves in the background.
func New(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	a, err := NewRouter(conf.Aggregator)
	if err != nil {
		return nil, err
	}
	ln, err := net.Listen("tcp", net.JoinHostPort(conf.Host, strconv.Itoa(conf.Port)))
	if err != nil {
		return nil, fmt.Errorf("cannot listen: %w", err)
	}
	a.server = &http.Server{Handler: a.router, ReadHeaderTimeout: 10 * time.Second}
	log.Infow("starting API server", "address", ln.Addr().String())
	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw(err, "API server stopped")
		}
	}()
	return a, nil
}

// Close stops the HTTP server started by New.
func (a *API) Close() error {
	if a.server == nil {
		return nil
	}
	return a.server.Close()
}

// NewRouter creates the API without starting a server, the caller serves
// Router().
func NewRouter(agg *aggregator.Aggregator) (*API, error) {
	if agg == nil {
		return nil, fmt.Errorf("missing aggregator instance")
	}
	a := &API{agg: agg}
	a.initRouter()
	return a, nil
}

// Router returns the chi router for testing purposes
func (a *API) Router() *chi.Mux {
	return a.router
}

// registerHandlers registers all the API handlers.
func (a *API) registerHandlers() {
	log.Infow("register handler", "endpoint", PingEndpoint, "method", "GET")
	a.router.Get(PingEndpoint, func(w http.ResponseWriter, r *http.Request) {
		httpWriteOK(w)
	})
	log.Infow("register handler", "endpoint", LayoutsEndpoint, "method", "GET")
	a.router.Get(LayoutsEndpoint, a.layouts)
	log.Infow("register handler", "endpoint", WrapEndpoint, "method", "POST")
	a.router.Post(WrapEndpoint, a.wrap)
	log.Infow("register handler", "endpoint", OutputsEndpoint, "method", "GET")
	a.router.Get(OutputsEndpoint, a.outputs)
	log.Infow("register handler", "endpoint", RootEndpoint, "method", "GET")
	a.router.Get(RootEndpoint, a.root)
	log.Infow("register handler", "endpoint", RegistryProofEndpoint, "method", "GET")
	a.router.Get(RegistryProofEndpoint, a.registryProof)
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() {
	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	a.router.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	// wrapping the largest families verifies dozens of proofs
	a.router.Use(middleware.Timeout(5 * time.Minute))
	a.router.Use(middleware.RequestSize(maxBodySize))

	a.registerHandlers()
}
