package render

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interday/reliastat/pkg/types"
)

func results(t *testing.T) types.ResultSet {
	t.Helper()
	values := map[types.Metric]float64{}
	for _, m := range types.Metrics() {
		values[m] = 1.25
	}
	values[types.ICC] = math.NaN()
	rs, err := types.NewResultSet(values)
	require.NoError(t, err)
	return rs
}

func TestResults_PlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Results(results(t))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, len(types.Metrics()))
	assert.Equal(t, "Mediana Dia 1: 1.25", lines[0])
	assert.Equal(t, "ICC Não Paramétrico: NaN", lines[6])
	assert.Equal(t, "MdAPE (%): 1.25", lines[11])
}

func TestResults_Styled(t *testing.T) {
	var buf bytes.Buffer
	r := &Renderer{w: &buf, styled: true}
	r.Results(results(t))

	out := buf.String()
	assert.Contains(t, out, "Métrica")
	assert.Contains(t, out, "Erro padrão da Mediana Dia 2")
	assert.Contains(t, out, "╭")
}

func TestAnalysis_WithAlerts(t *testing.T) {
	var buf bytes.Buffer
	Plain(&buf).Analysis(&types.Analysis{
		ID:      "a-1",
		N:       12,
		Params:  types.Params{Resamples: 1000, Confidence: 0.95},
		Results: results(t),
		Alerts: []types.Alert{{
			Rule: "low-icc", Severity: "warning", Condition: "icc < 0.5",
			Metric: "icc", Value: types.Value(0.3),
		}},
	})

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "analysis a-1  n=12  resamples=1000  confidence=0.95\n"))
	assert.Contains(t, out, "ALERT [warning] low-icc: icc < 0.5 (icc = 0.3)")
}

func TestError(t *testing.T) {
	var buf bytes.Buffer
	Plain(&buf).Error(errors.New("malformed input: day 1 has no values"))
	assert.Equal(t, "Erro ao processar os dados: malformed input: day 1 has no values\n", buf.String())
}
