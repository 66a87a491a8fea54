package tco

import (
	"fmt"
	"math"
	"sort"

	"github.com/joelkehle/nac-tco/internal/catalog"
)

type Variable string

const (
	VarDeviceCount        Variable = "deviceCount"
	VarUnitCost           Variable = "unitCost"
	VarFTEAllocation      Variable = "fteAllocation"
	VarImplementationDays Variable = "implementationDays"
)

var Variables = []Variable{VarDeviceCount, VarUnitCost, VarFTEAllocation, VarImplementationDays}

// variableBounds limits what a sweep may ask for; the override-backed
// variables share the documented override bounds.
var variableBounds = map[Variable]Bound{
	VarDeviceCount:        {Min: 1, Max: MaxDeviceCount},
	VarUnitCost:           ParameterBounds[ParamUnitPrice],
	VarFTEAllocation:      ParameterBounds[ParamFTEAllocation],
	VarImplementationDays: ParameterBounds[ParamImplementationDays],
}

type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// SeriesByVendor holds one TCO series per vendor aligned to Points.
type SeriesByVendor struct {
	Variable Variable             `json:"variable"`
	Points   []float64            `json:"points"`
	Series   map[string][]float64 `json:"series"`
	Degraded []string             `json:"degraded,omitempty"`
}

func ParseVariable(s string) (Variable, bool) {
	for _, v := range Variables {
		if string(v) == s {
			return v, true
		}
	}
	return "", false
}

// ValidateSweep rejects a malformed sweep before any cost is computed.
func ValidateSweep(variable Variable, r Range, steps int) error {
	bad := func(reason string) error {
		return &InvalidRangeError{Variable: variable, Min: r.Min, Max: r.Max, Steps: steps, Reason: reason}
	}
	b, ok := variableBounds[variable]
	if !ok {
		return bad("unknown variable")
	}
	if steps <= 0 {
		return bad("steps must be positive")
	}
	if steps > MaxSweepSteps {
		return bad(fmt.Sprintf("steps must be at most %d", MaxSweepSteps))
	}
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || r.Min >= r.Max {
		return bad("min must be less than max")
	}
	if !b.Contains(r.Min) || !b.Contains(r.Max) {
		return bad(fmt.Sprintf("range must lie within [%g, %g]", b.Min, b.Max))
	}
	return nil
}

// SamplePoints returns steps evenly spaced points over [min, max], both ends
// included. A single step samples min only.
func SamplePoints(r Range, steps int) []float64 {
	if steps == 1 {
		return []float64{r.Min}
	}
	out := make([]float64, steps)
	span := (r.Max - r.Min) / float64(steps-1)
	for i := range out {
		out[i] = r.Min + float64(i)*span
	}
	out[steps-1] = r.Max
	return out
}

// Sweep recomputes TCO for every vendor at each sample of one variable while
// every other input stays fixed. Points reports the value actually applied,
// so integer variables come back rounded. It holds no state between calls.
func Sweep(variable Variable, r Range, steps int, vendors []catalog.Vendor, p Profile) (SeriesByVendor, error) {
	if err := ValidateSweep(variable, r, steps); err != nil {
		return SeriesByVendor{}, err
	}
	points := SamplePoints(r, steps)
	for i, x := range points {
		points[i] = appliedValue(variable, x)
	}
	out := SeriesByVendor{
		Variable: variable,
		Points:   points,
		Series:   make(map[string][]float64, len(vendors)),
	}
	degraded := map[string]bool{}
	for _, v := range vendors {
		series := make([]float64, len(points))
		for i, x := range points {
			cost, err := ComputeCost(v, applyVariable(p, variable, x))
			if err != nil {
				degraded[v.ID] = true
			}
			series[i] = cost.TotalTCO
		}
		out.Series[v.ID] = series
	}
	for id := range degraded {
		out.Degraded = append(out.Degraded, id)
	}
	sort.Strings(out.Degraded)
	return out, nil
}

// appliedValue maps a sample onto the value the cost model sees. Device
// counts and implementation days are whole numbers.
func appliedValue(variable Variable, x float64) float64 {
	switch variable {
	case VarDeviceCount:
		return math.Max(1, math.Round(x))
	case VarImplementationDays:
		return math.Round(x)
	}
	return x
}

func applyVariable(p Profile, variable Variable, x float64) Profile {
	params := p.Params
	x = appliedValue(variable, x)
	switch variable {
	case VarDeviceCount:
		return p.WithDeviceCount(int(x))
	case VarUnitCost:
		v := x
		params.UnitPrice = &v
	case VarFTEAllocation:
		params.FTEAllocation = x
	case VarImplementationDays:
		d := int(x)
		params.ImplementationDays = &d
	}
	p.Params = params
	return p
}

type SensitivityDriver struct {
	Variable  Variable `json:"variable"`
	Low       float64  `json:"low"`
	High      float64  `json:"high"`
	TCOLow    float64  `json:"tco_low"`
	TCOHigh   float64  `json:"tco_high"`
	DeltaUSD  float64  `json:"delta_usd"`
	Direction string   `json:"direction"`
	Degraded  bool     `json:"degraded,omitempty"`
}

// DriverRanges picks a default low/high pair per variable around the
// profile's current values for vendor v.
func DriverRanges(v catalog.Vendor, p Profile) map[Variable]Range {
	out := map[Variable]Range{
		VarDeviceCount:   {Min: math.Max(1, math.Round(float64(p.DeviceCount)*0.5)), Max: math.Round(float64(p.DeviceCount) * 1.5)},
		VarFTEAllocation: {Min: 0.5, Max: 1.0},
	}
	if price, ok := v.Pricing[p.SizeTier]; ok && price > 0 {
		out[VarUnitCost] = Range{Min: price * 0.75, Max: price * 1.25}
	}
	if days := v.Implementation.Days; days > 0 {
		out[VarImplementationDays] = Range{Min: math.Max(1, math.Round(float64(days)*0.5)), Max: math.Round(float64(days) * 1.5)}
	}
	return out
}

// Drivers ranks variables by how far TCO moves between the low and high end
// of each range, largest swing first. A variable whose cost cannot be
// computed at either end is flagged degraded with no swing and ranked last.
func Drivers(v catalog.Vendor, p Profile, ranges map[Variable]Range) []SensitivityDriver {
	out := make([]SensitivityDriver, 0, len(ranges))
	for _, variable := range Variables {
		r, ok := ranges[variable]
		if !ok {
			continue
		}
		low, lowErr := ComputeCost(v, applyVariable(p, variable, r.Min))
		high, highErr := ComputeCost(v, applyVariable(p, variable, r.Max))
		if lowErr != nil || highErr != nil {
			out = append(out, SensitivityDriver{
				Variable:  variable,
				Low:       r.Min,
				High:      r.Max,
				TCOLow:    low.TotalTCO,
				TCOHigh:   high.TotalTCO,
				Direction: fmt.Sprintf("TCO unavailable across the %s range", variable),
				Degraded:  true,
			})
			continue
		}
		delta := high.TotalTCO - low.TotalTCO
		direction := "no effect on TCO"
		switch {
		case delta > 0:
			direction = fmt.Sprintf("higher %s raises TCO by $%.0f", variable, delta)
		case delta < 0:
			direction = fmt.Sprintf("higher %s lowers TCO by $%.0f", variable, -delta)
		}
		out = append(out, SensitivityDriver{
			Variable:  variable,
			Low:       r.Min,
			High:      r.Max,
			TCOLow:    low.TotalTCO,
			TCOHigh:   high.TotalTCO,
			DeltaUSD:  math.Abs(delta),
			Direction: direction,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Degraded != out[j].Degraded {
			return !out[i].Degraded
		}
		return out[i].DeltaUSD > out[j].DeltaUSD
	})
	return out
}
