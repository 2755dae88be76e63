package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"qcview/adapters/excel"
	"qcview/app"
	"qcview/domain/sheet"
	"qcview/internal"
	"qcview/internal/chart"
	"qcview/internal/errors"
	"qcview/internal/profiling"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterConfig holds JSON API settings
type RouterConfig struct {
	MaxUploadBytes int64
}

// Router serves the workbench as JSON
type Router struct {
	mux       *chi.Mux
	workbench *app.Workbench
	config    RouterConfig
	logger    *internal.Logger
}

// NewRouter creates the chi router with its middleware and routes
func NewRouter(wb *app.Workbench, config RouterConfig, logger *internal.Logger) *Router {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	r := &Router{
		mux:       chi.NewRouter(),
		workbench: wb,
		config:    config,
		logger:    logger.WithComponent("API"),
	}

	r.mux.Use(middleware.Logger)
	r.mux.Use(middleware.Recoverer)
	r.mux.Use(middleware.Compress(5))

	r.mux.Post("/api/workbook", r.handleUpload)
	r.mux.Get("/api/view", r.handleView)
	r.mux.Get("/api/columns", r.handleColumns)
	r.mux.Get("/api/charts/{slot}", r.handleChart)
	return r
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// UploadResponse is returned after a workbook was loaded
type UploadResponse struct {
	Generation uint64         `json:"generation"`
	Filename   string         `json:"filename"`
	Rows       int            `json:"rows"`
	Columns    map[string]int `json:"columns"`
}

// SeriesResponse is one chart's data
type SeriesResponse struct {
	Points  []chart.Point     `json:"points"`
	Summary profiling.Summary `json:"summary"`
}

// ViewResponse is the filtered table with its chart series
type ViewResponse struct {
	Generation    uint64                    `json:"generation"`
	Header        []string                  `json:"header"`
	Rows          [][]string                `json:"rows"`
	Series        map[string]SeriesResponse `json:"series"`
	ChartsSkipped bool                      `json:"charts_skipped"`
	Missing       []sheet.Role              `json:"missing,omitempty"`
}

func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) {
	file, header, err := req.FormFile("file")
	if err != nil {
		r.writeError(w, errors.InvalidInput("no file uploaded"))
		return
	}
	defer file.Close()

	if err := excel.CheckUpload(header.Filename, header.Size, r.config.MaxUploadBytes); err != nil {
		r.writeError(w, err)
		return
	}

	view, err := r.workbench.Load(req.Context(), header.Filename, file)
	if err != nil {
		r.writeError(w, err)
		return
	}

	r.writeJSON(w, http.StatusOK, UploadResponse{
		Generation: view.Generation,
		Filename:   view.Filename,
		Rows:       view.TotalRows,
		Columns:    roleIndices(sheet.ResolveRoles(view.Dataset.Header())),
	})
}

func (r *Router) handleView(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	criteria := sheet.Criteria{
		Keyword: strings.TrimSpace(q.Get("product")),
		Date:    strings.TrimSpace(q.Get("date")),
	}
	view, err := r.workbench.Filter(req.Context(), criteria)
	if err != nil {
		r.writeError(w, err)
		return
	}
	r.writeJSON(w, http.StatusOK, buildViewResponse(view))
}

func (r *Router) handleColumns(w http.ResponseWriter, req *http.Request) {
	cols, err := r.workbench.Columns()
	if err != nil {
		r.writeError(w, err)
		return
	}
	r.writeJSON(w, http.StatusOK, roleIndices(cols))
}

// handleChart returns the live handle of a slot without its image
func (r *Router) handleChart(w http.ResponseWriter, req *http.Request) {
	slot := chart.Slot(chi.URLParam(req, "slot"))
	if !slot.Valid() {
		r.writeError(w, errors.NotFound("chart slot "+string(slot)))
		return
	}
	h, ok := r.workbench.Charts().Handle(slot)
	if !ok {
		r.writeError(w, errors.NotFound("chart "+string(slot)))
		return
	}
	r.writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":         h.ID,
		"slot":       h.Slot,
		"label":      h.Label,
		"points":     h.Points,
		"summary":    h.Summary,
		"created_at": h.CreatedAt,
	})
}

func buildViewResponse(view *app.View) ViewResponse {
	resp := ViewResponse{
		Generation:    view.Generation,
		Header:        view.Dataset.Header(),
		Rows:          [][]string{},
		Series:        map[string]SeriesResponse{},
		ChartsSkipped: view.Charts.Skipped,
		Missing:       view.Charts.Missing,
	}
	for _, row := range view.Table.Rows {
		if row.Header {
			continue
		}
		resp.Rows = append(resp.Rows, row.Cells)
	}
	if view.Charts.Skipped {
		return resp
	}
	for _, slot := range chart.Slots {
		points := view.Charts.Series[slot]
		summary, _ := profiling.Summarize(chart.Values(points))
		if points == nil {
			points = []chart.Point{}
		}
		resp.Series[string(slot)] = SeriesResponse{Points: points, Summary: summary}
	}
	return resp
}

func roleIndices(res sheet.Resolution) map[string]int {
	out := make(map[string]int, len(res))
	for role, idx := range res.Indices() {
		out[string(role)] = idx
	}
	return out
}

func (r *Router) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		r.logger.Warn("failed to encode response: %v", err)
	}
}

func (r *Router) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		r.logger.Error("request failed: %v", err)
	}
	r.writeJSON(w, status, map[string]string{"error": err.Error(), "code": errors.GetCode(err)})
}
