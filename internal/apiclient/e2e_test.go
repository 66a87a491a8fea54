//go:build integration

package apiclient

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joelkehle/nac-tco/internal/catalog"
	"github.com/joelkehle/nac-tco/internal/httpapi"
	"github.com/joelkehle/nac-tco/internal/metrics"
	"github.com/joelkehle/nac-tco/internal/store"
	"github.com/joelkehle/nac-tco/internal/tco"
)

func TestE2EProfileToReport(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// --- 1. Start the server in-process with a sqlite store ---
	ss, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "nac-tco.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer ss.Close()
	engine, err := tco.NewEngine(catalog.Default(), tco.WithParallelism(4))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	handler := httpapi.NewServer(engine, "/metrics",
		httpapi.WithStore(ss),
		httpapi.WithMetrics(metrics.NewRegistry("e2e")),
	)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	defer srv.Close()

	c := NewClient("http://" + ln.Addr().String())

	// --- 2. Save a profile and calculate from it ---
	org := tco.Organization{
		Name:                   "Northwind Health",
		DeviceCount:            12000,
		Industry:               "healthcare",
		ComplianceRequirements: []string{"HIPAA"},
		RiskProfile:            "regulated",
	}
	saved, err := c.SaveProfile(ctx, "", org)
	if err != nil {
		t.Fatalf("save profile: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("server should assign a profile id")
	}
	calc, err := c.CalculateProfile(ctx, saved.ID)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if calc.RunID == "" || calc.Result.Profile.SizeTier != catalog.TierLarge {
		t.Fatalf("unexpected calculation run=%q tier=%s", calc.RunID, calc.Result.Profile.SizeTier)
	}

	// --- 3. Run history records the winner ---
	runs, err := c.ListRuns(ctx, saved.ID, 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].BestVendor != calc.Result.Comparison.Ranking[0] {
		t.Fatalf("unexpected runs %+v", runs)
	}

	// --- 4. Markdown report with drivers and a sweep ---
	md, err := c.Report(ctx, "markdown", org, ReportOptions{
		Drivers: true,
		Sweep:   &tco.SweepRequest{Variable: "fteAllocation", Min: 0.1, Max: 1, Steps: 4},
	})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	for _, want := range []string{"Northwind Health", "## Cost Drivers", "## Sensitivity: fteAllocation"} {
		if !bytes.Contains(md, []byte(want)) {
			t.Fatalf("report missing %q", want)
		}
	}

	// --- 5. Metrics reflect the traffic ---
	blob, _, err := c.DoJSON(ctx, http.MethodGet, "/metrics", nil)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if !strings.Contains(string(blob), `e2e_reports_total{format="markdown"} 1`) {
		t.Fatal("report metric missing")
	}

	// --- 6. Deleting the profile makes it unavailable ---
	if err := c.DeleteProfile(ctx, saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.GetProfile(ctx, saved.ID); err == nil {
		t.Fatal("expected not found after delete")
	}
}
