// Package httpapi exposes the backtest engine and run history over a JSON
// HTTP API.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"backlab/internal/backtest"
	"backlab/internal/store"
)

// batchWorkers bounds the parallelism of compare and multi-ticker batches.
const batchWorkers = 4

// Server serves the backtest HTTP API.
type Server struct {
	engine *backtest.Backtester
	runs   store.RunStore
	log    *slog.Logger
}

// NewServer creates a Server around the given engine and run store. The run
// store may be nil, in which case runs are not persisted.
func NewServer(engine *backtest.Backtester, runs store.RunStore, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		engine: engine,
		runs:   runs,
		log:    log,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/strategies", s.handleStrategies)
	mux.HandleFunc("POST /api/backtest", s.handleBacktest)
	mux.HandleFunc("POST /api/compare", s.handleCompare)
	mux.HandleFunc("POST /api/multi-ticker", s.handleMultiTicker)
	mux.HandleFunc("GET /api/runs", s.handleRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleRun)
	mux.HandleFunc("GET /api/runs/{id}/trades", s.handleRunTrades)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
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
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// parseDateRange parses YYYY-MM-DD start/end strings, defaulting end to now.
func parseDateRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if endStr == "" {
		return start, time.Now().UTC(), nil
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// errorStatus maps engine errors to HTTP status codes.
func errorStatus(err error) int {
	switch err.(type) {
	case *backtest.ValidationError:
		return http.StatusBadRequest
	case *backtest.DataError:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleStrategies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string][]string{"strategies": s.engine.Registry().List()})
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Strategy == "" || req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "strategy and symbol are required")
		return
	}
	if req.Market == "" {
		req.Market = "us"
	}
	start, end, err := parseDateRange(req.Start, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date range: "+err.Error())
		return
	}

	res, err := s.engine.Run(r.Context(), req.Strategy, req.Symbol, req.Market, start, end)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	resp := backtestResponse(res)
	if s.runs != nil {
		id, err := s.runs.SaveRun(r.Context(), runRecord(res), runTradeRecords(res.TradeLevels))
		if err != nil {
			s.log.Error("persisting run", "error", err)
		} else {
			resp.RunID = id
		}
	}
	writeJSON(w, resp)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	if req.Market == "" {
		req.Market = "us"
	}
	start, end, err := parseDateRange(req.Start, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date range: "+err.Error())
		return
	}

	outcomes := s.engine.CompareStrategies(r.Context(), req.Symbol, req.Market, start, end, batchWorkers)
	resp := CompareResponse{Results: runSummaries(outcomes)}
	// Outcomes arrive sorted, so the first successful row is the winner.
	for i := range resp.Results {
		if resp.Results[i].Error == "" {
			resp.Best = &resp.Results[i]
			break
		}
	}
	writeJSON(w, resp)
}

func (s *Server) handleMultiTicker(w http.ResponseWriter, r *http.Request) {
	var req MultiTickerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Strategy == "" || len(req.Symbols) == 0 {
		writeError(w, http.StatusBadRequest, "strategy and symbols are required")
		return
	}
	if req.Market == "" {
		req.Market = "us"
	}
	start, end, err := parseDateRange(req.Start, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date range: "+err.Error())
		return
	}

	outcomes := s.engine.MultiTicker(r.Context(), req.Strategy, req.Symbols, req.Market, start, end, batchWorkers)
	avg, median, succeeded := backtest.ReturnStats(outcomes)
	writeJSON(w, MultiTickerResponse{
		Results: runSummaries(outcomes),
		Summary: BatchSummary{
			AvgReturnPct:    avg,
			MedianReturnPct: median,
			Succeeded:       succeeded,
			Failed:          len(outcomes) - succeeded,
		},
	})
}

func runSummaries(outcomes []backtest.RunOutcome) []RunSummary {
	out := make([]RunSummary, len(outcomes))
	for i, o := range outcomes {
		out[i] = RunSummary{
			Strategy: o.Request.Strategy,
			Symbol:   o.Request.Symbol,
		}
		if o.Err != nil {
			out[i].Error = o.Err.Error()
			continue
		}
		m := metricsDTO(o.Result.Metrics)
		out[i].Metrics = &m
	}
	return out
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusNotFound, "run persistence not configured")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	records, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]RunRecordDTO, len(records))
	for i, rec := range records {
		out[i] = runRecordDTO(rec)
	}
	writeJSON(w, map[string][]RunRecordDTO{"runs": out})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusNotFound, "run persistence not configured")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	rec, err := s.runs.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, runRecordDTO(*rec))
}

func (s *Server) handleRunTrades(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusNotFound, "run persistence not configured")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	rec, err := s.runs.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}

	trades, err := s.runs.ListRunTrades(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string][]TradeDTO{"trades": tradeDTOs(trades)})
}
