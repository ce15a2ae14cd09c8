package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/fdg312/fridge-journal/internal/auth"
	"github.com/fdg312/fridge-journal/internal/blob"
	"github.com/fdg312/fridge-journal/internal/config"
	"github.com/fdg312/fridge-journal/internal/fridge"
	"github.com/fdg312/fridge-journal/internal/httpx"
	"github.com/fdg312/fridge-journal/internal/journal"
	"github.com/fdg312/fridge-journal/internal/logging"
	"github.com/fdg312/fridge-journal/internal/meals"
	"github.com/fdg312/fridge-journal/internal/products"
	"github.com/fdg312/fridge-journal/internal/reports"
	"github.com/fdg312/fridge-journal/internal/storage"
	"github.com/fdg312/fridge-journal/internal/storage/memory"
	"github.com/fdg312/fridge-journal/internal/storage/postgres"
)

// Server is the HTTP API server.
type Server struct {
	config         *config.Config
	logger         zerolog.Logger
	mux            *http.ServeMux
	storage        storage.Storage
	storageKind    string
	blobStore      blob.Store
	blobMode       string
	authMiddleware *auth.Middleware
	httpServer     *http.Server
}

// New initialises storage and blob store and registers the routes.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	s := &Server{
		config: cfg,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	s.initStorage(ctx)

	store, mode, err := blob.NewBlobStore(ctx, cfg.Blob, logging.Component(logger, "blob"))
	if err != nil {
		_ = s.storage.Close()
		return nil, fmt.Errorf("init blob store: %w", err)
	}
	s.blobStore, s.blobMode = store, mode

	s.routes()
	return s, nil
}

// initStorage connects to Postgres when a database URL is configured and
// falls back to memory otherwise.
func (s *Server) initStorage(ctx context.Context) {
	log := logging.Component(s.logger, "storage")

	if s.config.DatabaseURL == "" {
		log.Info().Msg("using in-memory storage")
		s.storage, s.storageKind = memory.New(), "memory"
		return
	}

	pg, err := postgres.New(ctx, s.config.DatabaseURL)
	if err != nil {
		log.Error().Err(err).Msg("postgres connection failed, fallback to in-memory storage")
		s.storage, s.storageKind = memory.New(), "memory"
		return
	}

	log.Info().Msg("postgres connected")
	s.storage, s.storageKind = pg, "postgres"
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)

	mealsService := meals.NewService(s.storage)

	// Auth API
	authService := auth.NewService(s.config, s.storage, mealsService)
	authHandler := auth.NewHandlers(authService)
	s.authMiddleware = auth.NewMiddleware(s.config, authService)

	if s.config.AuthEnabled() {
		s.mux.HandleFunc("POST /v1/auth/register", authHandler.HandleRegister)
		s.mux.HandleFunc("POST /v1/auth/login", authHandler.HandleLogin)
		s.mux.HandleFunc("POST /v1/auth/refresh", authHandler.HandleRefresh)
		s.mux.HandleFunc("GET /v1/me", authHandler.HandleMe)
	}
	if s.config.AuthMode == config.AuthModeDev {
		s.mux.HandleFunc("POST /v1/auth/dev", authHandler.HandleDevAuth)
	}

	// Products API
	productsService := products.NewService(s.storage, s.blobStore, s.config.UploadMaxMB, s.config.UploadAllowedMime)
	productsHandler := products.NewHandler(productsService, s.config.PageSize)
	s.mux.HandleFunc("GET /v1/products", productsHandler.HandleList)
	s.mux.HandleFunc("POST /v1/products", productsHandler.HandleCreate)
	s.mux.HandleFunc("GET /v1/products/{barcode}", productsHandler.HandleGet)
	s.mux.HandleFunc("PUT /v1/products/{barcode}", productsHandler.HandleReplace)
	s.mux.HandleFunc("PATCH /v1/products/{barcode}", productsHandler.HandlePatch)
	s.mux.HandleFunc("DELETE /v1/products/{barcode}", productsHandler.HandleDelete)
	s.mux.HandleFunc("GET /v1/products/{barcode}/nutrients", productsHandler.HandleNutrients)
	s.mux.HandleFunc("GET /v1/products/{barcode}/picture", productsHandler.HandleGetPicture)
	s.mux.HandleFunc("POST /v1/products/{barcode}/picture", productsHandler.HandleUploadPicture)

	// Fridge API
	fridgeHandler := fridge.NewHandler(fridge.NewService(s.storage), s.config.PageSize)
	s.mux.HandleFunc("GET /v1/fridge", fridgeHandler.HandleList)
	s.mux.HandleFunc("POST /v1/fridge", fridgeHandler.HandleCreate)
	s.mux.HandleFunc("GET /v1/fridge/{id}", fridgeHandler.HandleGet)
	s.mux.HandleFunc("PATCH /v1/fridge/{id}", fridgeHandler.HandleUpdate)
	s.mux.HandleFunc("DELETE /v1/fridge/{id}", fridgeHandler.HandleDelete)

	// User meals API
	mealsHandler := meals.NewHandler(mealsService)
	s.mux.HandleFunc("GET /v1/user-meals", mealsHandler.HandleList)
	s.mux.HandleFunc("POST /v1/user-meals", mealsHandler.HandleCreate)
	s.mux.HandleFunc("GET /v1/user-meals/{id}", mealsHandler.HandleGet)
	s.mux.HandleFunc("PATCH /v1/user-meals/{id}", mealsHandler.HandleUpdate)
	s.mux.HandleFunc("DELETE /v1/user-meals/{id}", mealsHandler.HandleDelete)

	// Journal API. Literal segments win over {id}.
	journalHandler := journal.NewHandler(journal.NewService(s.storage, mealsService), s.config.PageSize)
	reportsHandler := reports.NewHandler(reports.NewService(s.storage, s.config.ReportsMaxRangeDays))
	s.mux.HandleFunc("GET /v1/journal", journalHandler.HandleList)
	s.mux.HandleFunc("POST /v1/journal", journalHandler.HandleCreate)
	s.mux.HandleFunc("GET /v1/journal/day", journalHandler.HandleDay)
	s.mux.HandleFunc("GET /v1/journal/report", reportsHandler.HandleExport)
	s.mux.HandleFunc("GET /v1/journal/{id}", journalHandler.HandleGet)
	s.mux.HandleFunc("PATCH /v1/journal/{id}", journalHandler.HandleUpdate)
	s.mux.HandleFunc("DELETE /v1/journal/{id}", journalHandler.HandleDelete)
}

// Handler returns the router wrapped in the middleware chain, outermost
// first: CORS, rate limit, request log, auth.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux
	if s.config.AuthEnabled() {
		handler = s.authMiddleware.Handler(handler)
	}
	handler = RequestLogMiddleware(logging.Component(s.logger, "http"), handler)
	handler = RateLimitMiddleware(s.config, handler)
	handler = CORSMiddleware(s.config, handler)
	return handler
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"storage": s.storageKind,
		"blob":    s.blobMode,
	})
}

// Start listens on the configured port until Shutdown is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info().
		Str("addr", s.httpServer.Addr).
		Str("storage", s.storageKind).
		Str("blob", s.blobMode).
		Str("auth_mode", s.config.AuthMode).
		Bool("auth_required", s.config.AuthRequired).
		Msg("server listening")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Close releases the storage.
func (s *Server) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
