package tco

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/joelkehle/nac-tco/internal/catalog"
)

const tracerName = "github.com/joelkehle/nac-tco/internal/tco"

// Engine evaluates organizations against an immutable catalog. It holds no
// mutable state after construction and is safe for concurrent use.
type Engine struct {
	cat         *catalog.Catalog
	logger      *zap.Logger
	tracer      trace.Tracer
	policy      BenefitPolicy
	parallelism int
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		if tp != nil {
			e.tracer = tp.Tracer(tracerName)
		}
	}
}

func WithBenefitPolicy(p BenefitPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithParallelism caps concurrent vendor evaluations. Zero or less means
// one goroutine per vendor.
func WithParallelism(n int) Option {
	return func(e *Engine) { e.parallelism = n }
}

func NewEngine(cat *catalog.Catalog, opts ...Option) (*Engine, error) {
	if cat == nil {
		return nil, fmt.Errorf("new engine: nil catalog")
	}
	e := &Engine{
		cat:    cat,
		logger: zap.NewNop(),
		tracer: otel.Tracer(tracerName),
		policy: DefaultBenefitPolicy(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Catalog() *catalog.Catalog { return e.cat }

func (e *Engine) Policy() BenefitPolicy { return e.policy }

// Result is one full comparison run.
type Result struct {
	Profile    Profile         `json:"profile"`
	BaselineID string          `json:"baseline_id"`
	Vendors    []VendorResult  `json:"vendors"`
	Comparison ComparisonTable `json:"comparison"`
	Warnings   []string        `json:"warnings,omitempty"`
	Elapsed    time.Duration   `json:"elapsed_ns"`
}

func (r *Result) Vendor(id string) (VendorResult, bool) {
	for _, v := range r.Vendors {
		if v.ID() == id {
			return v, true
		}
	}
	return VendorResult{}, false
}

// Ranked returns vendor results in comparison ranking order.
func (r *Result) Ranked() []VendorResult {
	out := make([]VendorResult, 0, len(r.Comparison.Ranking))
	for _, id := range r.Comparison.Ranking {
		if v, ok := r.Vendor(id); ok {
			out = append(out, v)
		}
	}
	return out
}

// Calculate resolves the organization and evaluates every catalog vendor.
// Validation errors are returned before any model runs; data integrity
// problems degrade the affected vendor and are reported as warnings.
func (e *Engine) Calculate(ctx context.Context, org Organization) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "tco.Calculate")
	defer span.End()
	start := time.Now()

	p, err := Resolve(org, e.cat)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("org.device_count", p.DeviceCount),
		attribute.String("org.size_tier", string(p.SizeTier)),
		attribute.String("org.industry", p.Industry.ID),
		attribute.Int("org.years", p.YearsToProject),
	)
	if p.UsedDefaultIndustry {
		e.logger.Info("industry not recognised, using default",
			zap.String("requested", org.Industry), zap.String("industry", p.Industry.ID))
	}

	vendors := e.cat.Vendors()
	results, err := e.evaluate(ctx, vendors, p)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := &Result{Profile: p, BaselineID: p.BaselineVendorID, Vendors: results}
	if p.UsedDefaultIndustry && org.Industry != "" {
		out.Warnings = append(out.Warnings, fmt.Sprintf("industry %q not recognised; using %q", org.Industry, p.Industry.ID))
	}

	baseline, ok := out.Vendor(p.BaselineVendorID)
	if !ok {
		// ROI falls back to a zero-cost baseline.
		baseline.Cost = CostBreakdown{VendorID: p.BaselineVendorID, Degraded: true}
		out.Warnings = append(out.Warnings, fmt.Sprintf("baseline vendor %q missing from catalog", p.BaselineVendorID))
		e.logger.Warn("baseline vendor missing", zap.String("baseline", p.BaselineVendorID))
	}
	for i := range out.Vendors {
		r := &out.Vendors[i]
		r.ROI = ComputeROI(r.Cost, baseline.Cost, r.Risk, p, e.policy)
		if r.Cost.Degraded {
			out.Warnings = append(out.Warnings, r.Cost.Issues...)
		}
	}
	out.Comparison = Aggregate(out.Vendors, p)
	out.Elapsed = time.Since(start)

	e.logger.Debug("calculation complete",
		zap.Int("vendors", len(out.Vendors)),
		zap.Int("warnings", len(out.Warnings)),
		zap.Duration("elapsed", out.Elapsed))
	return out, nil
}

// evaluate runs the cost and risk models for each vendor concurrently. The
// output keeps catalog order.
func (e *Engine) evaluate(ctx context.Context, vendors []catalog.Vendor, p Profile) ([]VendorResult, error) {
	results := make([]VendorResult, len(vendors))
	g, gctx := errgroup.WithContext(ctx)
	if e.parallelism > 0 {
		g.SetLimit(e.parallelism)
	}
	for i, v := range vendors {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, span := e.tracer.Start(gctx, "tco.evaluateVendor", trace.WithAttributes(attribute.String("vendor.id", v.ID)))
			defer span.End()

			cost, err := ComputeCost(v, p)
			if err != nil {
				span.RecordError(err)
				e.logger.Warn("vendor cost degraded", zap.String("vendor", v.ID), zap.Error(err))
			}
			results[i] = VendorResult{
				Vendor: v,
				Cost:   cost,
				Risk:   AssessRisk(v, p, true),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluate vendors: %w", err)
	}
	return results, nil
}

type SweepRequest struct {
	Organization Organization `json:"organization"`
	Variable     string       `json:"variable"`
	Min          float64      `json:"min"`
	Max          float64      `json:"max"`
	Steps        int          `json:"steps"`
	VendorIDs    []string     `json:"vendor_ids,omitempty"`
}

// Sweep validates the range, resolves the organization and samples TCO for
// the requested vendors (all when none are named).
func (e *Engine) Sweep(ctx context.Context, req SweepRequest) (SeriesByVendor, error) {
	_, span := e.tracer.Start(ctx, "tco.Sweep", trace.WithAttributes(
		attribute.String("sweep.variable", req.Variable),
		attribute.Int("sweep.steps", req.Steps),
	))
	defer span.End()

	variable, ok := ParseVariable(req.Variable)
	if !ok {
		err := &InvalidRangeError{Variable: Variable(req.Variable), Min: req.Min, Max: req.Max, Steps: req.Steps, Reason: "unknown variable"}
		span.SetStatus(codes.Error, err.Error())
		return SeriesByVendor{}, err
	}
	r := Range{Min: req.Min, Max: req.Max}
	if err := ValidateSweep(variable, r, req.Steps); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return SeriesByVendor{}, err
	}
	p, err := Resolve(req.Organization, e.cat)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return SeriesByVendor{}, err
	}
	vendors, err := e.selectVendors(req.VendorIDs)
	if err != nil {
		return SeriesByVendor{}, err
	}
	out, err := Sweep(variable, r, req.Steps, vendors, p)
	if err != nil {
		return SeriesByVendor{}, err
	}
	for _, id := range out.Degraded {
		e.logger.Warn("sweep series degraded", zap.String("vendor", id), zap.String("variable", string(variable)))
	}
	return out, nil
}

// Drivers ranks the TCO drivers for one vendor using ranges centred on the
// organization's current inputs.
func (e *Engine) Drivers(ctx context.Context, org Organization, vendorID string) ([]SensitivityDriver, error) {
	_, span := e.tracer.Start(ctx, "tco.Drivers", trace.WithAttributes(attribute.String("vendor.id", vendorID)))
	defer span.End()

	p, err := Resolve(org, e.cat)
	if err != nil {
		return nil, err
	}
	v, ok := e.cat.Vendor(vendorID)
	if !ok {
		return nil, NewNotFoundError("vendor", vendorID)
	}
	return Drivers(v, p, DriverRanges(v, p)), nil
}

func (e *Engine) selectVendors(ids []string) ([]catalog.Vendor, error) {
	if len(ids) == 0 {
		return e.cat.Vendors(), nil
	}
	out := make([]catalog.Vendor, 0, len(ids))
	for _, id := range ids {
		v, ok := e.cat.Vendor(id)
		if !ok {
			return nil, NewNotFoundError("vendor", id)
		}
		out = append(out, v)
	}
	return out, nil
}
