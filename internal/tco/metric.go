package tco

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

const undefinedLiteral = "undefined"

// Metric is a derived figure that may be undefined, e.g. ROI on a zero
// investment. It never carries NaN or Inf.
type Metric struct {
	Value   float64
	Defined bool
}

func Defined(v float64) Metric {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Undefined()
	}
	return Metric{Value: v, Defined: true}
}

func Undefined() Metric { return Metric{} }

func (m Metric) String() string {
	if !m.Defined {
		return undefinedLiteral
	}
	return strconv.FormatFloat(m.Value, 'f', 2, 64)
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Defined {
		return []byte(`"` + undefinedLiteral + `"`), nil
	}
	return json.Marshal(m.Value)
}

func (m *Metric) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) || bytes.Equal(b, []byte(`"`+undefinedLiteral+`"`)) {
		*m = Undefined()
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("metric: %w", err)
	}
	*m = Defined(v)
	return nil
}
