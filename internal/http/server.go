package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"moneyflow/internal/cache"
	"moneyflow/internal/core"
	"moneyflow/internal/dashboard"
	"moneyflow/internal/finance"
	"moneyflow/internal/log"
	"moneyflow/internal/middleware/ratelimit"
	"moneyflow/internal/middleware/security"
	"moneyflow/internal/middleware/trace"
)

// Options tunes NewServer. Zero values pick the defaults.
type Options struct {
	Logger          *log.Logger
	CategoryLimit   int
	DefaultCurrency string
	CacheSize       int
	CacheTTL        time.Duration
	RateLimit       ratelimit.Config
	// Ready is probed by /readyz in addition to the store having loaded.
	Ready func(ctx context.Context) error
	Now   func() time.Time
}

type Server struct {
	http.Server
	store  *finance.Store
	logger *log.Logger

	// Encoded dashboard payloads, purged on every change.
	cache        *cache.LRUCache[[]byte]
	cacheManager *cache.Manager

	rateLimiter *ratelimit.Limiter
	detector    *security.Detector
	tracer      *trace.Middleware
	hub         *Hub

	now             func() time.Time
	categoryLimit   int
	defaultCurrency string
	ready           func(ctx context.Context) error
	startedAt       time.Time

	shutdownOnce sync.Once
}

// NewServer wires the API over store and registers itself as a store
// notifier so cached payloads are purged and dashboards told on change.
func NewServer(addr string, store *finance.Store, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.CategoryLimit <= 0 {
		opts.CategoryLimit = dashboard.DefaultCategoryLimit
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = core.DefaultCurrency
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 200
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	logger := opts.Logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		store:           store,
		logger:          logger,
		cache:           cache.NewLRUCache[[]byte](opts.CacheSize, opts.CacheTTL),
		cacheManager:    cache.NewManager(opts.Logger),
		rateLimiter:     ratelimit.NewLimiter(opts.RateLimit),
		detector:        security.NewDetector(),
		hub:             NewHub(opts.Logger),
		now:             opts.Now,
		categoryLimit:   opts.CategoryLimit,
		defaultCurrency: opts.DefaultCurrency,
		ready:           opts.Ready,
		startedAt:       opts.Now(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)
	s.cacheManager.Register(s.cache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	store.AddNotifier(s)
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /ws", s.hub)

	mux.HandleFunc("GET /api/dashboard/daily", s.handleDaily)
	mux.HandleFunc("GET /api/dashboard/categories", s.handleCategoryBreakdown)
	mux.HandleFunc("GET /api/dashboard/summary", s.handleSummary)
	mux.HandleFunc("GET /api/transactions/latest", s.handleLatestTransactions)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/recurring-expenses", s.handleListRecurring)
	mux.HandleFunc("POST /api/recurring-expenses", s.handleCreateRecurring)
	mux.HandleFunc("DELETE /api/recurring-expenses/{id}", s.handleDeleteRecurring)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no such endpoint").Write(w)
	})

	limit := s.rateLimiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		TooManyRequestsError("rate limit exceeded, try again later").Write(w)
	}, http.MethodPost, http.MethodPut, http.MethodDelete)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var h http.Handler = mux
	h = limit(h)
	h = security.NoStore(h)
	h = headers.Middleware(h)
	h = s.tracer.Middleware(h)
	h = s.detector.Middleware(s.logger)(h)
	return h
}

// Notify purges cached payloads and tells connected dashboards. It is
// called by the finance store after local mutations and by the change
// consumer for changes made elsewhere.
func (s *Server) Notify(ctx context.Context, change core.Change) error {
	purged := s.cache.Purge()
	s.logger.DebugContext(ctx, "Finance data changed",
		log.FieldEntity, change.Entity,
		log.FieldOperation, change.Op,
		log.FieldEntityID, change.ID,
		"purged", purged)
	return s.hub.Broadcast(change)
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		if err := s.hub.Close(); err != nil {
			s.logger.Warn("Closing websocket sessions failed", log.FieldError, err)
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
