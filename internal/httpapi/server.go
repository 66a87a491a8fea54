package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/joelkehle/nac-tco/internal/metrics"
	"github.com/joelkehle/nac-tco/internal/report"
	"github.com/joelkehle/nac-tco/internal/store"
	"github.com/joelkehle/nac-tco/internal/tco"
)

const defaultMaxBodyBytes = 1 << 20

// ProfileStore is the optional organization cache behind /v1/profiles.
type ProfileStore interface {
	Ping(ctx context.Context) error
	SaveProfile(ctx context.Context, id string, org tco.Organization) (store.Profile, error)
	GetProfile(ctx context.Context, id string) (store.Profile, error)
	ListProfiles(ctx context.Context) ([]store.Profile, error)
	DeleteProfile(ctx context.Context, id string) error
	RecordRun(ctx context.Context, profileID string, res *tco.Result) (store.Run, error)
	ListRuns(ctx context.Context, profileID string, limit int) ([]store.Run, error)
}

type PDFRenderer interface {
	Render(ctx context.Context, md, title string) ([]byte, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, res *tco.Result) (string, error)
}

type Server struct {
	engine   *tco.Engine
	store    ProfileStore
	pdf      PDFRenderer
	narrator Summarizer
	metrics  *metrics.Registry
	logger   *zap.Logger
	maxBody  int64
	now      func() time.Time
}

type Option func(*Server)

func WithStore(s ProfileStore) Option { return func(srv *Server) { srv.store = s } }

func WithPDFRenderer(r PDFRenderer) Option { return func(srv *Server) { srv.pdf = r } }

func WithNarrator(n Summarizer) Option { return func(srv *Server) { srv.narrator = n } }

// WithMetrics records request metrics and serves them at the metrics path.
func WithMetrics(m *metrics.Registry) Option { return func(srv *Server) { srv.metrics = m } }

func WithLogger(l *zap.Logger) Option {
	return func(srv *Server) {
		if l != nil {
			srv.logger = l
		}
	}
}

func WithMaxBodyBytes(n int64) Option {
	return func(srv *Server) {
		if n > 0 {
			srv.maxBody = n
		}
	}
}

func WithClock(now func() time.Time) Option { return func(srv *Server) { srv.now = now } }

func NewServer(engine *tco.Engine, metricsPath string, opts ...Option) http.Handler {
	s := &Server{
		engine:  engine,
		logger:  zap.NewNop(),
		maxBody: defaultMaxBodyBytes,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	s.route(mux, "/v1/health", s.handleHealth)
	s.route(mux, "/v1/vendors", s.handleVendors)
	s.route(mux, "/v1/industries", s.handleIndustries)
	s.route(mux, "/v1/calculate", s.handleCalculate)
	s.route(mux, "/v1/sensitivity", s.handleSensitivity)
	s.route(mux, "/v1/drivers", s.handleDrivers)
	s.route(mux, "/v1/report", s.handleReport)
	s.route(mux, "/v1/profiles", s.handleProfiles)
	s.route(mux, "/v1/profiles/", s.handleProfile)
	s.route(mux, "/v1/runs", s.handleRuns)
	if s.metrics != nil {
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		mux.Handle(metricsPath, s.metrics.Handler())
	}
	return mux
}

func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.metrics.ObserveHTTP(r.Method, pattern, rec.status, time.Since(start))
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	e := tco.AsError(err)
	s.metrics.ObserveError(e.Code)
	if e.Status >= 500 {
		s.logger.Error("request failed", zap.String("code", e.Code), zap.Error(err))
	}
	writeJSON(w, e.Status, map[string]any{
		"ok": false,
		"error": map[string]any{
			"code":    e.Code,
			"message": e.Message,
		},
	})
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &tco.ValidationError{Field: "body", Reason: fmt.Sprintf("exceeds %d bytes", tooLarge.Limit)}
	}
	return &tco.ValidationError{Field: "body", Reason: "invalid JSON: " + err.Error()}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	blob, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		return bodyError(err)
	}
	if len(strings.TrimSpace(string(blob))) == 0 {
		return nil
	}
	if err := json.Unmarshal(blob, dst); err != nil {
		return bodyError(err)
	}
	return nil
}

func parseInt(value string, def int) int {
	if strings.TrimSpace(value) == "" {
		return def
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return v
}

func methodOnly(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func errStoreDisabled() error {
	return &tco.Error{Code: tco.CodeNotFound, Message: "profile store not configured", Status: http.StatusNotFound}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	storeStatus := "disabled"
	if s.store != nil {
		storeStatus = "ok"
		if err := s.store.Ping(r.Context()); err != nil {
			storeStatus = "error: " + err.Error()
		}
	}
	writeJSON(w, 200, map[string]any{
		"ok":      true,
		"vendors": len(s.engine.Catalog().Vendors()),
		"store":   storeStatus,
		"pdf":     s.pdf != nil,
		"summary": s.narrator != nil,
	})
}

func (s *Server) handleVendors(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "vendors": s.engine.Catalog().Vendors()})
}

func (s *Server) handleIndustries(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, 200, map[string]any{
		"ok":         true,
		"industries": s.engine.Catalog().Industries(),
		"frameworks": s.engine.Catalog().Frameworks(),
	})
}

// organizationRequest names an organization inline or by stored profile id.
type organizationRequest struct {
	Organization *tco.Organization `json:"organization"`
	ProfileID    string            `json:"profile_id"`
}

func (s *Server) resolveOrganization(ctx context.Context, req organizationRequest) (tco.Organization, error) {
	if req.Organization != nil {
		return *req.Organization, nil
	}
	if id := strings.TrimSpace(req.ProfileID); id != "" {
		if s.store == nil {
			return tco.Organization{}, errStoreDisabled()
		}
		p, err := s.store.GetProfile(ctx, id)
		if err != nil {
			return tco.Organization{}, err
		}
		return p.Organization, nil
	}
	return tco.Organization{}, &tco.ValidationError{Field: "organization", Reason: "organization or profile_id is required"}
}

func (s *Server) calculate(ctx context.Context, org tco.Organization) (*tco.Result, error) {
	res, err := s.engine.Calculate(ctx, org)
	if err != nil {
		return nil, err
	}
	var degraded []string
	for _, v := range res.Vendors {
		if v.Cost.Degraded {
			degraded = append(degraded, v.ID())
		}
	}
	s.metrics.ObserveCalculation(string(res.Profile.SizeTier), res.Profile.Industry.ID, res.Elapsed, degraded)
	return res, nil
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	var req organizationRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	org, err := s.resolveOrganization(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.calculate(r.Context(), org)
	if err != nil {
		s.writeError(w, err)
		return
	}
	payload := map[string]any{"ok": true, "result": res}
	if s.store != nil {
		run, err := s.store.RecordRun(r.Context(), strings.TrimSpace(req.ProfileID), res)
		if err != nil {
			s.logger.Warn("record run failed", zap.Error(err))
		} else {
			payload["run_id"] = run.ID
		}
	}
	writeJSON(w, 200, payload)
}

func (s *Server) handleSensitivity(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	var req struct {
		tco.SweepRequest
		ProfileID string `json:"profile_id"`
	}
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.ProfileID != "" {
		org, err := s.resolveOrganization(r.Context(), organizationRequest{ProfileID: req.ProfileID})
		if err != nil {
			s.writeError(w, err)
			return
		}
		req.Organization = org
	}
	series, err := s.engine.Sweep(r.Context(), req.SweepRequest)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.ObserveSweep(string(series.Variable))
	writeJSON(w, 200, map[string]any{"ok": true, "sensitivity": series})
}

func (s *Server) handleDrivers(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	var req struct {
		organizationRequest
		VendorIDs []string `json:"vendor_ids"`
	}
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	org, err := s.resolveOrganization(r.Context(), req.organizationRequest)
	if err != nil {
		s.writeError(w, err)
		return
	}
	drivers, err := s.drivers(r.Context(), org, req.VendorIDs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "drivers": drivers})
}

// drivers ranks cost drivers for the named vendors, or for every vendor
// except the baseline when none are named.
func (s *Server) drivers(ctx context.Context, org tco.Organization, ids []string) (map[string][]tco.SensitivityDriver, error) {
	if len(ids) == 0 {
		p, err := tco.Resolve(org, s.engine.Catalog())
		if err != nil {
			return nil, err
		}
		for _, id := range s.engine.Catalog().VendorIDs() {
			if id != p.BaselineVendorID {
				ids = append(ids, id)
			}
		}
	}
	out := make(map[string][]tco.SensitivityDriver, len(ids))
	for _, id := range ids {
		d, err := s.engine.Drivers(ctx, org, id)
		if err != nil {
			return nil, err
		}
		out[id] = d
	}
	return out, nil
}

type reportRequest struct {
	organizationRequest
	Title   string            `json:"title"`
	Drivers bool              `json:"drivers"`
	Summary bool              `json:"summary"`
	Sweep   *tco.SweepRequest `json:"sweep"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "markdown"
	}
	switch format {
	case "markdown", "html", "pdf":
	default:
		s.writeError(w, &tco.ValidationError{Field: "format", Reason: fmt.Sprintf("%q not one of markdown, html, pdf", format)})
		return
	}
	if format == "pdf" && s.pdf == nil {
		s.writeError(w, &tco.Error{Code: tco.CodeInternal, Message: "pdf rendering not configured", Status: http.StatusServiceUnavailable})
		return
	}

	var req reportRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	ctx := r.Context()
	org, err := s.resolveOrganization(ctx, req.organizationRequest)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.calculate(ctx, org)
	if err != nil {
		s.writeError(w, err)
		return
	}
	in := report.Input{Result: res, GeneratedAt: s.now()}
	if req.Drivers {
		if in.Drivers, err = s.drivers(ctx, org, nil); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.Sweep != nil {
		sweep := *req.Sweep
		sweep.Organization = org
		series, err := s.engine.Sweep(ctx, sweep)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.metrics.ObserveSweep(string(series.Variable))
		in.Sweep = &series
	}
	if req.Summary && s.narrator != nil {
		summary, err := s.narrator.Summarize(ctx, res)
		if err != nil {
			s.logger.Warn("executive summary unavailable", zap.Error(err))
		} else {
			in.Summary = summary
		}
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "NAC TCO Report"
		if res.Profile.Name != "" {
			title += " - " + res.Profile.Name
		}
	}
	md := report.Markdown(in)
	switch format {
	case "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = io.WriteString(w, md)
	case "html":
		doc, err := report.RenderHTML(md, title)
		if err != nil {
			s.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, doc)
	case "pdf":
		pdf, err := s.pdf.Render(ctx, md, title)
		if err != nil {
			s.writeError(w, fmt.Errorf("render pdf: %w", err))
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="nac-tco-report.pdf"`)
		_, _ = w.Write(pdf)
	}
	s.metrics.ObserveReport(format)
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, errStoreDisabled())
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req struct {
			ID           string            `json:"id"`
			Organization *tco.Organization `json:"organization"`
		}
		if err := s.decode(w, r, &req); err != nil {
			s.writeError(w, err)
			return
		}
		if req.Organization == nil {
			s.writeError(w, &tco.ValidationError{Field: "organization", Reason: "required"})
			return
		}
		// Reject profiles the engine could never calculate.
		if _, err := tco.Resolve(*req.Organization, s.engine.Catalog()); err != nil {
			s.writeError(w, err)
			return
		}
		p, err := s.store.SaveProfile(r.Context(), req.ID, *req.Organization)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, 200, map[string]any{"ok": true, "profile": p})
	case http.MethodGet:
		profiles, err := s.store.ListProfiles(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, 200, map[string]any{"ok": true, "profiles": profiles})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, errStoreDisabled())
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/profiles/"), "/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		p, err := s.store.GetProfile(r.Context(), id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, 200, map[string]any{"ok": true, "profile": p})
	case http.MethodDelete:
		if err := s.store.DeleteProfile(r.Context(), id); err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, 200, map[string]any{"ok": true, "profile_id": id})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	if s.store == nil {
		s.writeError(w, errStoreDisabled())
		return
	}
	runs, err := s.store.ListRuns(r.Context(),
		strings.TrimSpace(r.URL.Query().Get("profile_id")),
		parseInt(r.URL.Query().Get("limit"), 50))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "runs": runs})
}
