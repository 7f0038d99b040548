package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrIncompleteResults is returned when a ResultSet is built without every metric.
var ErrIncompleteResults = errors.New("incomplete result set")

// Entry is one (metric, value) row of a ResultSet.
type Entry struct {
	Metric Metric
	Value  Value
}

// ResultSet maps every Metric to its computed value. The zero value is empty
// and reports Complete() == false; use NewResultSet.
type ResultSet struct {
	values   [metricCount]Value
	complete bool
}

// NewResultSet builds a ResultSet from values, which must hold all metrics.
func NewResultSet(values map[Metric]float64) (ResultSet, error) {
	var rs ResultSet
	var missing []string
	for _, m := range Metrics() {
		v, ok := values[m]
		if !ok {
			missing = append(missing, m.Slug())
			continue
		}
		rs.values[m] = Value(v)
	}
	if len(missing) > 0 {
		return ResultSet{}, fmt.Errorf("%w: missing %s", ErrIncompleteResults, strings.Join(missing, ", "))
	}
	rs.complete = true
	return rs, nil
}

// Complete reports whether rs was built with every metric.
func (rs ResultSet) Complete() bool { return rs.complete }

// Get returns the value of m. NaN marks an undefined metric.
func (rs ResultSet) Get(m Metric) float64 {
	if !m.Valid() {
		return 0
	}
	return float64(rs.values[m])
}

// Lookup returns the value for a display name or slug.
func (rs ResultSet) Lookup(key string) (float64, bool) {
	m, ok := ParseMetric(key)
	if !ok || !rs.complete {
		return 0, false
	}
	return rs.Get(m), true
}

// Entries returns every row in display order.
func (rs ResultSet) Entries() []Entry {
	out := make([]Entry, 0, metricCount)
	for _, m := range Metrics() {
		out = append(out, Entry{Metric: m, Value: rs.values[m]})
	}
	return out
}

// Map returns the results keyed by display name.
func (rs ResultSet) Map() map[string]float64 {
	out := make(map[string]float64, metricCount)
	for _, e := range rs.Entries() {
		out[e.Metric.Name()] = float64(e.Value)
	}
	return out
}

type entryJSON struct {
	Metric string `json:"metric"`
	Key    string `json:"key"`
	Value  Value  `json:"value"`
}

// MarshalJSON encodes the set as an ordered array of {metric, key, value}.
func (rs ResultSet) MarshalJSON() ([]byte, error) {
	if !rs.complete {
		return nil, ErrIncompleteResults
	}
	rows := make([]entryJSON, 0, metricCount)
	for _, e := range rs.Entries() {
		rows = append(rows, entryJSON{Metric: e.Metric.Name(), Key: e.Metric.Slug(), Value: e.Value})
	}
	return json.Marshal(rows)
}

// UnmarshalJSON decodes the array form produced by MarshalJSON.
func (rs *ResultSet) UnmarshalJSON(data []byte) error {
	var rows []entryJSON
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	values := make(map[Metric]float64, len(rows))
	for _, r := range rows {
		m, ok := ParseMetric(r.Key)
		if !ok {
			if m, ok = ParseMetric(r.Metric); !ok {
				return fmt.Errorf("result set: unknown metric %q", r.Metric)
			}
		}
		values[m] = float64(r.Value)
	}
	out, err := NewResultSet(values)
	if err != nil {
		return err
	}
	*rs = out
	return nil
}
