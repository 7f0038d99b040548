package alerts

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/interday/reliastat/pkg/types"
)

const opIsNaN = "is_nan"

// Condition is a parsed rule expression.
type Condition struct {
	Metric    types.Metric
	Op        string
	Threshold float64
}

// ParseCondition parses "<slug> <op> <number>" with op one of > >= < <= ==,
// or "<slug> is_nan".
func ParseCondition(s string) (Condition, error) {
	parts := strings.Fields(s)
	if len(parts) < 2 {
		return Condition{}, fmt.Errorf("condition %q: want \"<metric> <op> <value>\"", s)
	}
	m, ok := types.ParseMetric(parts[0])
	if !ok {
		return Condition{}, fmt.Errorf("condition %q: unknown metric %q", s, parts[0])
	}

	op := parts[1]
	if op == opIsNaN {
		if len(parts) != 2 {
			return Condition{}, fmt.Errorf("condition %q: is_nan takes no value", s)
		}
		return Condition{Metric: m, Op: op}, nil
	}
	if len(parts) != 3 {
		return Condition{}, fmt.Errorf("condition %q: want \"<metric> <op> <value>\"", s)
	}
	switch op {
	case ">", ">=", "<", "<=", "==":
	default:
		return Condition{}, fmt.Errorf("condition %q: unknown operator %q", s, op)
	}
	threshold, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || math.IsNaN(threshold) {
		return Condition{}, fmt.Errorf("condition %q: invalid threshold %q", s, parts[2])
	}
	return Condition{Metric: m, Op: op, Threshold: threshold}, nil
}

// Eval reports whether c holds for rs and returns the metric value.
// Comparisons against an undefined (NaN) metric never hold.
func (c Condition) Eval(rs types.ResultSet) (bool, float64) {
	v := rs.Get(c.Metric)
	if c.Op == opIsNaN {
		return math.IsNaN(v), v
	}
	return compareFloat(v, c.Op, c.Threshold), v
}

func (c Condition) String() string {
	if c.Op == opIsNaN {
		return c.Metric.Slug() + " " + opIsNaN
	}
	return fmt.Sprintf("%s %s %s", c.Metric.Slug(), c.Op, strconv.FormatFloat(c.Threshold, 'g', -1, 64))
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	default:
		return false
	}
}
