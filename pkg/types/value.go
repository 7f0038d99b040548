package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Value is a metric value. JSON has no literal for NaN or infinities, so those
// encode as the strings "NaN", "+Inf" and "-Inf".
type Value float64

// String formats v with the shortest representation that round-trips.
func (v Value) String() string {
	return strconv.FormatFloat(float64(v), 'g', -1, 64)
}

// IsNaN reports whether v is the undefined sentinel.
func (v Value) IsNaN() bool { return math.IsNaN(float64(v)) }

func (v Value) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return json.Marshal(v.String())
	}
	return json.Marshal(f)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*v = Value(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("value: want number or string, got %s", data)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("value: %w", err)
	}
	*v = Value(f)
	return nil
}
