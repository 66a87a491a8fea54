package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/joelkehle/nac-tco/internal/catalog"
	"github.com/joelkehle/nac-tco/internal/metrics"
	"github.com/joelkehle/nac-tco/internal/store"
	"github.com/joelkehle/nac-tco/internal/tco"
)

type fakePDF struct {
	title string
	err   error
}

func (f *fakePDF) Render(_ context.Context, md, title string) ([]byte, error) {
	f.title = title
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 " + md[:10]), nil
}

type fakeNarrator struct {
	text string
	err  error
}

func (f fakeNarrator) Summarize(context.Context, *tco.Result) (string, error) {
	return f.text, f.err
}

func newServerForTest(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	engine, err := tco.NewEngine(catalog.Default())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	now := time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC)
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	return NewServer(engine, "/metrics", opts...)
}

func newStoreForTest(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(t.TempDir() + "/nac-tco.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	blob, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(blob))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode body: %v body=%s", err, rr.Body.String())
	}
}

type errorEnvelope struct {
	OK    bool `json:"ok"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) errorEnvelope {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected %d, got %d body=%s", status, rr.Code, rr.Body.String())
	}
	var env errorEnvelope
	decodeBody(t, rr, &env)
	if env.OK || env.Error.Code != code {
		t.Fatalf("expected error code %q, got %+v", code, env)
	}
	return env
}

var acme = map[string]any{
	"name":                    "Acme",
	"device_count":            1000,
	"industry":                "financial",
	"compliance_requirements": []string{"pci-dss"},
}

func TestHealthAndCatalogEndpoints(t *testing.T) {
	h := newServerForTest(t)

	rr := get(h, "/v1/health")
	if rr.Code != 200 {
		t.Fatalf("health status=%d", rr.Code)
	}
	var health struct {
		OK      bool   `json:"ok"`
		Vendors int    `json:"vendors"`
		Store   string `json:"store"`
	}
	decodeBody(t, rr, &health)
	if !health.OK || health.Vendors != len(catalog.Default().Vendors()) || health.Store != "disabled" {
		t.Fatalf("unexpected health: %+v", health)
	}

	rr = get(h, "/v1/vendors")
	var vendors struct {
		Vendors []catalog.Vendor `json:"vendors"`
	}
	decodeBody(t, rr, &vendors)
	if len(vendors.Vendors) == 0 || vendors.Vendors[0].ID != "portnox" {
		t.Fatalf("unexpected vendors: %d", len(vendors.Vendors))
	}

	rr = get(h, "/v1/industries")
	var industries struct {
		Industries []catalog.Industry `json:"industries"`
		Frameworks []string           `json:"frameworks"`
	}
	decodeBody(t, rr, &industries)
	if len(industries.Industries) != 7 || len(industries.Frameworks) == 0 {
		t.Fatalf("unexpected industries: %d frameworks: %v", len(industries.Industries), industries.Frameworks)
	}

	rr = postJSON(t, h, "/v1/vendors", map[string]any{})
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestCalculate(t *testing.T) {
	h := newServerForTest(t)
	rr := postJSON(t, h, "/v1/calculate", map[string]any{"organization": acme})
	if rr.Code != 200 {
		t.Fatalf("calculate status=%d body=%s", rr.Code, rr.Body.String())
	}
	var out struct {
		OK     bool `json:"ok"`
		Result struct {
			BaselineID string              `json:"baseline_id"`
			Comparison tco.ComparisonTable `json:"comparison"`
		} `json:"result"`
	}
	decodeBody(t, rr, &out)
	if !out.OK || out.Result.BaselineID != "no-nac" {
		t.Fatalf("unexpected result: %+v", out)
	}
	if out.Result.Comparison.Ranking[0] != "portnox" || out.Result.Comparison.TCO["portnox"] != 237000 {
		t.Fatalf("unexpected comparison: ranking=%v tco=%v", out.Result.Comparison.Ranking, out.Result.Comparison.TCO["portnox"])
	}
}

func TestCalculateErrors(t *testing.T) {
	h := newServerForTest(t)

	rr := postJSON(t, h, "/v1/calculate", map[string]any{"organization": map[string]any{"device_count": 0}})
	env := expectError(t, rr, 400, tco.CodeValidation)
	if !strings.Contains(env.Error.Message, "device_count") {
		t.Fatalf("expected field in message, got %q", env.Error.Message)
	}

	expectError(t, postJSON(t, h, "/v1/calculate", map[string]any{}), 400, tco.CodeValidation)

	req := httptest.NewRequest(http.MethodPost, "/v1/calculate", strings.NewReader("{not json"))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	expectError(t, rr, 400, tco.CodeValidation)

	expectError(t, postJSON(t, h, "/v1/calculate", map[string]any{"profile_id": "p1"}), 404, tco.CodeNotFound)
}

func TestCalculateBodyLimit(t *testing.T) {
	h := newServerForTest(t, WithMaxBodyBytes(64))
	rr := postJSON(t, h, "/v1/calculate", map[string]any{"organization": acme})
	env := expectError(t, rr, 400, tco.CodeValidation)
	if !strings.Contains(env.Error.Message, "exceeds 64 bytes") {
		t.Fatalf("unexpected message %q", env.Error.Message)
	}
}

func TestSensitivity(t *testing.T) {
	h := newServerForTest(t)
	rr := postJSON(t, h, "/v1/sensitivity", map[string]any{
		"organization": acme,
		"variable":     "deviceCount",
		"min":          500,
		"max":          5000,
		"steps":        10,
		"vendor_ids":   []string{"portnox", "cisco-ise"},
	})
	if rr.Code != 200 {
		t.Fatalf("sensitivity status=%d body=%s", rr.Code, rr.Body.String())
	}
	var out struct {
		Sensitivity tco.SeriesByVendor `json:"sensitivity"`
	}
	decodeBody(t, rr, &out)
	s := out.Sensitivity
	if len(s.Points) != 10 || len(s.Series) != 2 || len(s.Series["portnox"]) != 10 {
		t.Fatalf("unexpected series shape: points=%d series=%d", len(s.Points), len(s.Series))
	}

	rr = postJSON(t, h, "/v1/sensitivity", map[string]any{
		"organization": acme, "variable": "deviceCount", "min": 100, "max": 50, "steps": 5,
	})
	expectError(t, rr, 400, tco.CodeInvalidRange)

	rr = postJSON(t, h, "/v1/sensitivity", map[string]any{
		"organization": acme, "variable": "colour", "min": 1, "max": 2, "steps": 2,
	})
	expectError(t, rr, 400, tco.CodeInvalidRange)

	rr = postJSON(t, h, "/v1/sensitivity", map[string]any{
		"organization": acme, "variable": "deviceCount", "min": 1, "max": 2, "steps": 1 << 50,
	})
	expectError(t, rr, 400, tco.CodeInvalidRange)
}

func TestDrivers(t *testing.T) {
	h := newServerForTest(t)
	rr := postJSON(t, h, "/v1/drivers", map[string]any{"organization": acme})
	if rr.Code != 200 {
		t.Fatalf("drivers status=%d body=%s", rr.Code, rr.Body.String())
	}
	var out struct {
		Drivers map[string][]tco.SensitivityDriver `json:"drivers"`
	}
	decodeBody(t, rr, &out)
	if _, ok := out.Drivers["no-nac"]; ok {
		t.Fatal("baseline should not be ranked by default")
	}
	if len(out.Drivers["portnox"]) == 0 {
		t.Fatalf("missing portnox drivers: %v", out.Drivers)
	}

	rr = postJSON(t, h, "/v1/drivers", map[string]any{"organization": acme, "vendor_ids": []string{"nope"}})
	expectError(t, rr, 404, tco.CodeNotFound)
}

func TestReportFormats(t *testing.T) {
	pdf := &fakePDF{}
	h := newServerForTest(t, WithPDFRenderer(pdf), WithNarrator(fakeNarrator{text: "Portnox is cheapest."}))
	body := map[string]any{
		"organization": acme,
		"drivers":      true,
		"summary":      true,
		"sweep":        map[string]any{"variable": "deviceCount", "min": 500, "max": 1500, "steps": 3},
	}

	rr := postJSON(t, h, "/v1/report", body)
	if rr.Code != 200 {
		t.Fatalf("markdown status=%d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Fatalf("content type %q", ct)
	}
	md := rr.Body.String()
	for _, want := range []string{
		"## Executive Summary\n\nPortnox is cheapest.",
		"## Cost Drivers",
		"## Sensitivity: deviceCount",
		"- Date: 2026-02-17T00:00:00Z",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q", want)
		}
	}

	rr = postJSON(t, h, "/v1/report?format=html", map[string]any{"organization": acme})
	if rr.Code != 200 || !strings.Contains(rr.Body.String(), "<title>NAC TCO Report - Acme</title>") {
		t.Fatalf("html status=%d body=%.200s", rr.Code, rr.Body.String())
	}

	rr = postJSON(t, h, "/v1/report?format=pdf", map[string]any{"organization": acme, "title": "Board pack"})
	if rr.Code != 200 || rr.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("pdf status=%d ct=%q", rr.Code, rr.Header().Get("Content-Type"))
	}
	if pdf.title != "Board pack" || !strings.HasPrefix(rr.Body.String(), "%PDF") {
		t.Fatalf("unexpected pdf render title=%q", pdf.title)
	}

	expectError(t, postJSON(t, h, "/v1/report?format=docx", map[string]any{"organization": acme}), 400, tco.CodeValidation)
}

func TestReportWithoutOptionalRenderers(t *testing.T) {
	h := newServerForTest(t, WithNarrator(fakeNarrator{err: errors.New("rate limited")}))

	expectError(t, postJSON(t, h, "/v1/report?format=pdf", map[string]any{"organization": acme}), 503, tco.CodeInternal)

	rr := postJSON(t, h, "/v1/report", map[string]any{"organization": acme, "summary": true})
	if rr.Code != 200 {
		t.Fatalf("status=%d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "Executive Summary") {
		t.Fatal("failed summary should be left out")
	}
}

func TestReportPDFFailure(t *testing.T) {
	h := newServerForTest(t, WithPDFRenderer(&fakePDF{err: errors.New("chrome missing")}))
	env := expectError(t, postJSON(t, h, "/v1/report?format=pdf", map[string]any{"organization": acme}), 500, tco.CodeInternal)
	if !strings.Contains(env.Error.Message, "chrome missing") {
		t.Fatalf("unexpected message %q", env.Error.Message)
	}
}

func TestProfilesLifecycle(t *testing.T) {
	h := newServerForTest(t, WithStore(newStoreForTest(t)))

	rr := postJSON(t, h, "/v1/profiles", map[string]any{"id": "acme", "organization": acme})
	if rr.Code != 200 {
		t.Fatalf("save status=%d body=%s", rr.Code, rr.Body.String())
	}
	expectError(t, postJSON(t, h, "/v1/profiles", map[string]any{"organization": map[string]any{"device_count": -1}}), 400, tco.CodeValidation)
	expectError(t, postJSON(t, h, "/v1/profiles", map[string]any{}), 400, tco.CodeValidation)

	rr = get(h, "/v1/profiles/acme")
	var got struct {
		Profile store.Profile `json:"profile"`
	}
	decodeBody(t, rr, &got)
	if got.Profile.Name != "Acme" || got.Profile.Organization.DeviceCount != 1000 {
		t.Fatalf("unexpected profile %+v", got.Profile)
	}

	rr = get(h, "/v1/profiles")
	var list struct {
		Profiles []store.Profile `json:"profiles"`
	}
	decodeBody(t, rr, &list)
	if len(list.Profiles) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(list.Profiles))
	}

	rr = postJSON(t, h, "/v1/calculate", map[string]any{"profile_id": "acme"})
	var calc struct {
		RunID string `json:"run_id"`
	}
	decodeBody(t, rr, &calc)
	if rr.Code != 200 || calc.RunID == "" {
		t.Fatalf("calculate by profile status=%d run=%q", rr.Code, calc.RunID)
	}

	rr = get(h, "/v1/runs?profile_id=acme")
	var runs struct {
		Runs []store.Run `json:"runs"`
	}
	decodeBody(t, rr, &runs)
	if len(runs.Runs) != 1 || runs.Runs[0].BestVendor != "portnox" {
		t.Fatalf("unexpected runs %+v", runs.Runs)
	}

	req := httptest.NewRequest(http.MethodDelete, "/v1/profiles/acme", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Fatalf("delete status=%d", rr.Code)
	}
	expectError(t, get(h, "/v1/profiles/acme"), 404, tco.CodeNotFound)
}

func TestProfilesWithoutStore(t *testing.T) {
	h := newServerForTest(t)
	expectError(t, get(h, "/v1/profiles"), 404, tco.CodeNotFound)
	expectError(t, get(h, "/v1/runs"), 404, tco.CodeNotFound)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newServerForTest(t, WithMetrics(metrics.NewRegistry("test")))
	postJSON(t, h, "/v1/calculate", map[string]any{"organization": acme})
	postJSON(t, h, "/v1/calculate", map[string]any{"organization": map[string]any{"device_count": 0}})

	rr := get(h, "/metrics")
	if rr.Code != 200 {
		t.Fatalf("metrics status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		`test_calculations_total{industry="financial",size_tier="medium"} 1`,
		`test_errors_total{code="validation"} 1`,
		`test_http_requests_total{method="POST",route="/v1/calculate",status="4xx"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q", want)
		}
	}
}
