package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"hr-insights-go/internal/aggregator"
	"hr-insights-go/internal/dataset"
	"hr-insights-go/internal/logger"
	"hr-insights-go/internal/pipeline"
	"hr-insights-go/internal/processor"
	"hr-insights-go/internal/types"
)

const maxBodyBytes = 64 << 10

type API struct {
	engine     *pipeline.Engine
	negotiator *processor.Negotiator
	log        *logger.Logger
	mux        *http.ServeMux
}

func NewAPI(engine *pipeline.Engine, negotiator *processor.Negotiator, log *logger.Logger) *API {
	api := &API{
		engine:     engine,
		negotiator: negotiator,
		log:        log.Component("api"),
		mux:        http.NewServeMux(),
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	a.mux.HandleFunc("GET /healthz", a.health)
	a.mux.Handle("GET /metrics", promhttp.Handler())

	a.mux.HandleFunc("POST /api/chat", a.chat)
	a.mux.HandleFunc("POST /api/chat/{dataset}", a.chat)
	a.mux.HandleFunc("GET /api/stats/{dataset}", a.stats)
	a.mux.HandleFunc("GET /api/context/{dataset}", a.contextBlock)
	a.mux.HandleFunc("GET /api/datasets", a.datasets)
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// Handler returns the routes wrapped in request metrics.
func (a *API) Handler() http.Handler {
	return MetricsMiddleware(a)
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	a.log.WithRequest(r).Debug("health check")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "ok")
}

// chat answers a question against the dataset in the path; /api/chat uses the entry dataset.
func (a *API) chat(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("dataset")
	if name == "" {
		name = pipeline.Entry
	}
	reqLog := a.log.WithRequest(r).WithField("handler", "chat").WithField("dataset", name)

	ds, ok := a.engine.Dataset(name)
	if !ok {
		WriteJSONError(w, fmt.Sprintf("unknown dataset %q", name), http.StatusNotFound)
		return
	}

	var req types.QueryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		reqLog.WithField("error", err.Error()).Warn("invalid chat body")
		WriteJSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	start := time.Now()
	resp, err := a.negotiator.Answer(r.Context(), ds, req.Question, req.CredentialOrKey())
	if errors.Is(err, processor.ErrEmptyQuestion) {
		WriteJSONError(w, "Question is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		reqLog.WithField("error", err.Error()).Error("answer failed")
		WriteJSONError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	reqLog.WithField("intent", resp.Intent).
		WithField("used_fallback", resp.UsedFallback).
		WithField("fallback_error", resp.ErrorDetail()).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("question answered")
	WriteJSON(w, http.StatusOK, resp)
}

// stats returns the snapshot, trend and error sites, optionally filtered by query parameters.
func (a *API) stats(w http.ResponseWriter, r *http.Request) {
	ds, ok := a.engine.Dataset(r.PathValue("dataset"))
	if !ok {
		WriteJSONError(w, fmt.Sprintf("unknown dataset %q", r.PathValue("dataset")), http.StatusNotFound)
		return
	}

	f, err := filterFromQuery(r)
	if err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	view := ds.Filtered(f)

	WriteJSON(w, http.StatusOK, types.StatsResponse{
		Label:       view.Label,
		Stats:       view.Stats,
		LatestMonth: view.LatestMonth,
		DailyTrend:  aggregator.DailyTrend(view.Records),
		ErrorSites:  aggregator.TopErrorSites(view.Records, view.Stats.TopN),
	})
}

func (a *API) contextBlock(w http.ResponseWriter, r *http.Request) {
	ds, ok := a.engine.Dataset(r.PathValue("dataset"))
	if !ok {
		WriteJSONError(w, fmt.Sprintf("unknown dataset %q", r.PathValue("dataset")), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, ds.Context())
}

func (a *API) datasets(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string][]string{"datasets": a.engine.Names()})
}

func filterFromQuery(r *http.Request) (aggregator.Filter, error) {
	q := r.URL.Query()
	f := aggregator.Filter{
		From:       strings.TrimSpace(q.Get("from")),
		To:         strings.TrimSpace(q.Get("to")),
		Site:       strings.TrimSpace(q.Get("site")),
		Department: strings.TrimSpace(q.Get("department")),
	}
	if s := strings.TrimSpace(q.Get("status")); s != "" {
		f.Status = dataset.NormalizeStatus(s)
	}
	for _, d := range []string{f.From, f.To} {
		if d != "" && !aggregator.ValidDate(d) {
			return aggregator.Filter{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", d)
		}
	}
	return f, nil
}
