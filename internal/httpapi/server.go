package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"tradelab/internal/store"
	"tradelab/internal/strategy"
)

// maxBodyBytes bounds POST bodies.
const maxBodyBytes = 1 << 20

// BacktestServer serves the backtest HTTP API.
type BacktestServer struct {
	bt      *strategy.Backtester
	results store.ResultStore
	log     *slog.Logger
}

// NewBacktestServer creates a new HTTP server over bt. results may be nil, in
// which case runs are not persisted and the history routes return 404.
func NewBacktestServer(bt *strategy.Backtester, results store.ResultStore, log *slog.Logger) *BacktestServer {
	if log == nil {
		log = slog.Default()
	}
	return &BacktestServer{
		bt:      bt,
		results: results,
		log:     log.With("component", "httpapi"),
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *BacktestServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/strategies", s.handleStrategies)
	mux.HandleFunc("POST /api/backtest", s.handleBacktest)
	mux.HandleFunc("GET /api/compare", s.handleCompare)
	mux.HandleFunc("GET /api/results", s.handleListResults)
	mux.HandleFunc("GET /api/results/{id}", s.handleGetResult)
}

// Handler returns an http.Handler with CORS middleware.
func (s *BacktestServer) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeErrorKind(w, status, msg, "")
}

func writeErrorKind(w http.ResponseWriter, status int, msg, kind string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg, Kind: kind})
}

// StatusFor maps a backtest error to an HTTP status code.
func StatusFor(err error) int {
	kind, ok := strategy.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case strategy.KindInvalidStrategy, strategy.KindInvalidInput:
		return http.StatusBadRequest
	case strategy.KindNoDataAvailable:
		return http.StatusNotFound
	case strategy.KindInsufficientData:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *BacktestServer) writeBacktestError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	kind, _ := strategy.KindOf(err)
	if status == http.StatusInternalServerError {
		s.log.Error("backtest failed", "error", err)
	}
	writeErrorKind(w, status, err.Error(), string(kind))
}

func (s *BacktestServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *BacktestServer) handleStrategies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, StrategiesResponse{Strategies: s.bt.Registry().Ordered()})
}

func (s *BacktestServer) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req strategy.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeErrorKind(w, http.StatusBadRequest, "invalid request body: "+err.Error(), string(strategy.KindInvalidInput))
		return
	}

	res, err := s.bt.Run(r.Context(), req)
	if err != nil {
		s.writeBacktestError(w, err)
		return
	}

	resp := BacktestResponse{Result: res}
	if s.results != nil {
		id, err := s.save(r.Context(), res)
		if err != nil {
			// The run itself succeeded; the caller still gets the result.
			s.log.Error("saving run", "ticker", res.Ticker, "strategy", res.Strategy, "error", err)
		}
		resp.ID = id
	}
	writeJSON(w, resp)
}

func (s *BacktestServer) save(ctx context.Context, res *strategy.Result) (string, error) {
	payload, err := json.Marshal(res)
	if err != nil {
		return "", err
	}
	rec := &store.RunRecord{
		Ticker:      res.Ticker,
		Strategy:    res.Strategy,
		StartDate:   res.StartDate,
		EndDate:     res.EndDate,
		TotalReturn: res.TotalReturn,
		SharpeRatio: res.SharpeRatio,
		MaxDrawdown: res.MaxDrawdown,
		WinRate:     res.WinRate,
		Payload:     payload,
	}
	if err := s.results.SaveResult(ctx, rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (s *BacktestServer) handleCompare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cmp, err := s.bt.Compare(r.Context(), q.Get("ticker"), q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		s.writeBacktestError(w, err)
		return
	}
	writeJSON(w, cmp)
}

func (s *BacktestServer) handleListResults(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		writeError(w, http.StatusNotFound, "run history is not enabled")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	recs, err := s.results.ListResults(r.Context(), limit)
	if err != nil {
		s.log.Error("listing runs", "error", err)
		writeError(w, http.StatusInternalServerError, "listing runs failed")
		return
	}
	resp := ResultsResponse{Results: make([]RunSummary, 0, len(recs))}
	for i := range recs {
		resp.Results = append(resp.Results, summaryOf(&recs[i]))
	}
	writeJSON(w, resp)
}

func (s *BacktestServer) handleGetResult(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		writeError(w, http.StatusNotFound, "run history is not enabled")
		return
	}
	id := r.PathValue("id")
	rec, err := s.results.GetResult(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run "+id+" not found")
		return
	}
	if err != nil {
		s.log.Error("reading run", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "reading run failed")
		return
	}
	writeJSON(w, RunDetail{RunSummary: summaryOf(rec), Result: json.RawMessage(rec.Payload)})
}
