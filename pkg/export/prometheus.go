package export

import (
	"fmt"
	"io"
	"sort"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"
	"google.golang.org/protobuf/proto"

	"github.com/interday/reliastat/pkg/types"
)

// MetricPrefix is prepended to every metric slug in the exposition.
const MetricPrefix = "reliastat_"

// ContentType is the Content-Type of the text written by WritePrometheus.
var ContentType = string(expfmt.NewFormat(expfmt.TypeTextPlain))

// MetricName returns the exposition name of m.
func MetricName(m types.Metric) string { return MetricPrefix + m.Slug() }

// Families converts rs into one gauge MetricFamily per metric. labels are
// attached to every sample.
func Families(rs types.ResultSet, labels map[string]string) ([]*dto.MetricFamily, error) {
	if !rs.Complete() {
		return nil, fmt.Errorf("export: prometheus: %w", types.ErrIncompleteResults)
	}
	pairs, err := labelPairs(labels)
	if err != nil {
		return nil, err
	}

	mfs := make([]*dto.MetricFamily, 0, len(types.Metrics()))
	for _, e := range rs.Entries() {
		mfs = append(mfs, &dto.MetricFamily{
			Name: proto.String(MetricName(e.Metric)),
			Help: proto.String(e.Metric.Name()),
			Type: dto.MetricType_GAUGE.Enum(),
			Metric: []*dto.Metric{{
				Label: pairs,
				Gauge: &dto.Gauge{Value: proto.Float64(float64(e.Value))},
			}},
		})
	}
	return mfs, nil
}

// WritePrometheus writes rs in the Prometheus text exposition format.
func WritePrometheus(w io.Writer, rs types.ResultSet, labels map[string]string) error {
	mfs, err := Families(rs, labels)
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("export: prometheus: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// labelPairs validates label names and returns them sorted by name, which is
// the order the exposition format expects.
func labelPairs(labels map[string]string) ([]*dto.LabelPair, error) {
	names := make([]string, 0, len(labels))
	for k := range labels {
		if !model.LabelName(k).IsValid() {
			return nil, fmt.Errorf("export: prometheus: invalid label name %q", k)
		}
		names = append(names, k)
	}
	sort.Strings(names)

	pairs := make([]*dto.LabelPair, 0, len(names))
	for _, k := range names {
		pairs = append(pairs, &dto.LabelPair{Name: proto.String(k), Value: proto.String(labels[k])})
	}
	return pairs, nil
}
