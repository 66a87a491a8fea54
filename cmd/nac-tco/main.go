package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joelkehle/nac-tco/internal/catalog"
	"github.com/joelkehle/nac-tco/internal/config"
	"github.com/joelkehle/nac-tco/internal/report"
	"github.com/joelkehle/nac-tco/internal/store"
	"github.com/joelkehle/nac-tco/internal/tco"
	"github.com/joelkehle/nac-tco/internal/telemetry"
)

func main() {
	configDir := flag.String("config", "", "Directory containing config.yaml (benefit policy, catalog and cache paths)")
	profilePath := flag.String("profile", "", "Path to organization profile YAML")
	profileID := flag.String("profile-id", "", "Load the organization from the -cache store instead of -profile")
	catalogPath := flag.String("catalog", os.Getenv("NACTCO_CATALOG_PATH"), "Optional vendor catalog YAML (defaults to built-in data)")
	format := flag.String("format", "table", "Output format: table, markdown, json, html or pdf")
	outPath := flag.String("out", "", "Write output to this path (defaults to stdout; required for pdf)")
	sweepVar := flag.String("sweep", "", "Sensitivity variable: deviceCount, unitCost, fteAllocation or implementationDays")
	sweepMin := flag.Float64("min", 0, "Sweep range minimum")
	sweepMax := flag.Float64("max", 0, "Sweep range maximum")
	sweepSteps := flag.Int("steps", 10, "Sweep sample count")
	drivers := flag.Bool("drivers", false, "Include ranked cost drivers per vendor")
	summary := flag.Bool("summary", false, "Add an executive summary (requires ANTHROPIC_API_KEY)")
	cachePath := flag.String("cache", os.Getenv("NACTCO_STORE_PATH"), "SQLite cache for saved profiles and run history")
	saveAs := flag.String("save", "", "Save the -profile organization to the -cache store under this id")
	chromePath := flag.String("chrome", os.Getenv("CHROME_PATH"), "Chromium binary for pdf output")
	logLevel := flag.String("log-level", "warn", "Log level: debug, info, warn or error")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *catalogPath == "" {
		*catalogPath = cfg.Catalog.Path
	}
	if *cachePath == "" {
		*cachePath = cfg.Store.Path
	}

	logger, err := telemetry.NewLogger(config.LoggingConfig{Level: *logLevel, Format: "console"})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cat := catalog.Default()
	if *catalogPath != "" {
		if cat, err = catalog.Load(*catalogPath); err != nil {
			log.Fatalf("load catalog: %v", err)
		}
	}
	engine, err := tco.NewEngine(cat, append([]tco.Option{tco.WithLogger(logger)}, cfg.EngineOptions()...)...)
	if err != nil {
		log.Fatalf("engine: %v", err)
	}

	var cache *store.SQLiteStore
	if *cachePath != "" {
		if cache, err = store.NewSQLiteStore(*cachePath); err != nil {
			log.Fatalf("open cache (%s): %v", *cachePath, err)
		}
		defer cache.Close()
	}

	org, err := loadOrganization(ctx, *profilePath, *profileID, cache)
	if err != nil {
		log.Fatal(err)
	}
	if *saveAs != "" {
		if cache == nil {
			log.Fatal("-save requires -cache")
		}
		if _, err := cache.SaveProfile(ctx, *saveAs, org); err != nil {
			log.Fatalf("save profile: %v", err)
		}
	}

	res, err := engine.Calculate(ctx, org)
	if err != nil {
		log.Fatalf("calculate: %v", err)
	}
	if cache != nil {
		if _, err := cache.RecordRun(ctx, *profileID, res); err != nil {
			log.Printf("record run: %v", err)
		}
	}

	in := report.Input{Result: res, GeneratedAt: time.Now()}
	if *sweepVar != "" {
		series, err := engine.Sweep(ctx, tco.SweepRequest{
			Organization: org,
			Variable:     *sweepVar,
			Min:          *sweepMin,
			Max:          *sweepMax,
			Steps:        *sweepSteps,
		})
		if err != nil {
			log.Fatalf("sweep: %v", err)
		}
		in.Sweep = &series
	}
	if *drivers {
		in.Drivers = map[string][]tco.SensitivityDriver{}
		for _, id := range cat.VendorIDs() {
			if id == res.BaselineID {
				continue
			}
			d, err := engine.Drivers(ctx, org, id)
			if err != nil {
				log.Fatalf("drivers %s: %v", id, err)
			}
			in.Drivers[id] = d
		}
	}
	if *summary {
		narrator, err := report.NewNarratorFromEnv()
		if err != nil {
			log.Fatal(err)
		}
		if in.Summary, err = narrator.Summarize(ctx, res); err != nil {
			log.Printf("executive summary unavailable: %v", err)
		}
	}

	out, err := render(ctx, *format, in, *chromePath)
	if err != nil {
		log.Fatalf("render %s: %v", *format, err)
	}
	if err := writeOutput(*outPath, out); err != nil {
		log.Fatalf("write output: %v", err)
	}
}

func loadOrganization(ctx context.Context, path, id string, cache *store.SQLiteStore) (tco.Organization, error) {
	if id != "" {
		if cache == nil {
			return tco.Organization{}, fmt.Errorf("-profile-id requires -cache")
		}
		p, err := cache.GetProfile(ctx, id)
		if err != nil {
			return tco.Organization{}, fmt.Errorf("load profile %s: %w", id, err)
		}
		return p.Organization, nil
	}
	if path == "" {
		return tco.Organization{}, fmt.Errorf("missing required -profile")
	}
	org, ok, err := store.LoadOrganization(path)
	if err != nil {
		return tco.Organization{}, fmt.Errorf("load profile: %w", err)
	}
	if !ok {
		return tco.Organization{}, fmt.Errorf("profile %s not found", path)
	}
	return org, nil
}

func render(ctx context.Context, format string, in report.Input, chromePath string) ([]byte, error) {
	title := "NAC TCO Report"
	if in.Result.Profile.Name != "" {
		title += " - " + in.Result.Profile.Name
	}
	switch strings.ToLower(format) {
	case "table":
		return []byte(report.Terminal(in.Result)), nil
	case "markdown", "md":
		return []byte(report.Markdown(in)), nil
	case "json":
		payload := map[string]any{"result": in.Result}
		if in.Sweep != nil {
			payload["sensitivity"] = in.Sweep
		}
		if len(in.Drivers) > 0 {
			payload["drivers"] = in.Drivers
		}
		if in.Summary != "" {
			payload["summary"] = in.Summary
		}
		b, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	case "html":
		doc, err := report.RenderHTML(report.Markdown(in), title)
		return []byte(doc), err
	case "pdf":
		return report.NewPDFRenderer(chromePath, 0).Render(ctx, report.Markdown(in), title)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func writeOutput(path string, b []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(b)
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
