// Package api serves the projections over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"sui-amm-indexer/internal/domain"
	"sui-amm-indexer/internal/storage"
)

// Page size bounds for list endpoints.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// SwapLister reads archived swaps.
type SwapLister interface {
	ListByCoinType(ctx context.Context, coinType string, limit int) ([]*domain.SwapRecord, error)
}

// Options configures a Server.
type Options struct {
	Stores storage.Stores
	// Archive serves /api/swaps when set.
	Archive SwapLister
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	Logger  *zap.Logger
}

// Server is the read API.
type Server struct {
	stores  storage.Stores
	archive SwapLister
	metrics http.Handler
	logger  *zap.Logger
}

// NewServer creates a Server.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Server{
		stores:  opts.Stores,
		archive: opts.Archive,
		metrics: opts.Metrics,
		logger:  opts.Logger.Named("api"),
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	if s.metrics != nil {
		r.Mount("/metrics", s.metrics)
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/pools/{coinType}", s.pool)
		api.Get("/trades/{coinType}", s.trades)
		api.Get("/charts/{coinType}", s.charts)
		api.Get("/tokens/{coinType}", s.token)
		if s.archive != nil {
			api.Get("/swaps/{coinType}", s.swaps)
		}
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.write(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) pool(w http.ResponseWriter, r *http.Request) {
	coinType, ok := s.coinType(w, r)
	if !ok {
		return
	}
	state, err := s.stores.Pools.Get(r.Context(), coinType)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, http.StatusOK, state)
}

func (s *Server) trades(w http.ResponseWriter, r *http.Request) {
	coinType, ok := s.coinType(w, r)
	if !ok {
		return
	}
	limit, ok := s.limit(w, r)
	if !ok {
		return
	}
	ledger, err := s.stores.Trades.Get(r.Context(), coinType)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if len(ledger.Trades) > limit {
		ledger.Trades = ledger.Trades[:limit]
	}
	s.write(w, http.StatusOK, ledger)
}

func (s *Server) charts(w http.ResponseWriter, r *http.Request) {
	coinType, ok := s.coinType(w, r)
	if !ok {
		return
	}
	limit, ok := s.limit(w, r)
	if !ok {
		return
	}
	series, err := s.stores.Candles.Get(r.Context(), coinType)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if len(series.Candles) > limit {
		series.Candles = series.Candles[:limit]
	}
	s.write(w, http.StatusOK, series)
}

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	coinType, ok := s.coinType(w, r)
	if !ok {
		return
	}
	info, err := s.stores.Tokens.Get(r.Context(), coinType)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, http.StatusOK, info)
}

func (s *Server) swaps(w http.ResponseWriter, r *http.Request) {
	coinType, ok := s.coinType(w, r)
	if !ok {
		return
	}
	limit, ok := s.limit(w, r)
	if !ok {
		return
	}
	records, err := s.archive.ListByCoinType(r.Context(), coinType, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if records == nil {
		records = []*domain.SwapRecord{}
	}
	s.write(w, http.StatusOK, records)
}

func (s *Server) coinType(w http.ResponseWriter, r *http.Request) (string, bool) {
	coinType, err := url.PathUnescape(chi.URLParam(r, "coinType"))
	if err != nil || coinType == "" {
		s.writeError(w, r, http.StatusBadRequest, "bad_request", "invalid coin type")
		return "", false
	}
	return coinType, true
}

func (s *Server) limit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return DefaultLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		s.writeError(w, r, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
		return 0, false
	}
	if n > MaxLimit {
		n = MaxLimit
	}
	return n, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, r, http.StatusNotFound, "not_found", "no data for coin type")
		return
	}
	s.logger.Error("store read failed", zap.String("path", r.URL.Path), zap.Error(err))
	s.writeError(w, r, http.StatusInternalServerError, "internal", "store read failed")
}

func (s *Server) write(w http.ResponseWriter, status int, body any) {
	if err := JSON(w, status, body); err != nil {
		s.logger.Debug("write response failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	if err := Error(w, r, status, code, message); err != nil {
		s.logger.Debug("write response failed", zap.Error(err))
	}
}
