// Package gateway exposes the property and advisor-request collections over HTTP.
// Every route maps to exactly one document store call.
package gateway

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/investoriq/investoriq-api/pkg/logger"
	"github.com/investoriq/investoriq-api/pkg/storage"
)

// Collection names in the document store
const (
	CollectionProperties      = "properties"
	CollectionAdvisorRequests = "advisor_requests"
)

// StatusPending is written into every new advisor request
const StatusPending = "pending"

// Gateway-managed document fields
const (
	fieldID     = "id"
	fieldStatus = "status"
)

const (
	maxBodyBytes = 1 << 20
	readyTimeout = 2 * time.Second
)

// Options tunes request handling
type Options struct {
	// RequestTimeout bounds each API request including its store call; zero disables it
	RequestTimeout time.Duration
}

// Service handles the /api routes. It holds no per-request state; the store is
// created once at startup and shared by all requests.
type Service struct {
	store          storage.DocumentStore
	log            *logger.Logger
	httpLog        *logger.Logger
	requestTimeout time.Duration
}

// New creates a gateway over store
func New(store storage.DocumentStore, log *logger.Logger, opts Options) *Service {
	return &Service{
		store:          store,
		log:            log,
		httpLog:        logger.New(logger.ComponentHTTP),
		requestTimeout: opts.RequestTimeout,
	}
}

// WithRequestLogger replaces the per-request access logger
func (s *Service) WithRequestLogger(log *logger.Logger) *Service {
	s.httpLog = log
	return s
}

// Routes registers the API on a fresh mux
func (s *Service) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	s.route(mux, "GET /api/properties", s.handleListProperties)
	s.route(mux, "POST /api/properties", s.handleCreateProperty)
	s.route(mux, "GET /api/advisor-requests", s.handleListAdvisorRequests)
	s.route(mux, "POST /api/advisor-requests", s.handleCreateAdvisorRequest)
	s.route(mux, "PUT /api/advisor-requests/{request_id}", s.handleUpdateAdvisorRequest)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("/", s.handleNotFound)
	return mux
}

// Handler returns the API with its middleware chain applied
func (s *Service) Handler() http.Handler {
	return s.logRequests(s.recoverPanics(cors(s.withTimeout(s.Routes()))))
}

// HealthHandler serves probes and Prometheus metrics for the plain-HTTP health listener
func (s *Service) HealthHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (s *Service) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, instrumentRoute(pattern, h))
}
