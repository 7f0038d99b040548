package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/interday/reliastat/pkg/types"
)

// CSVHeader is the first row of every CSV export.
var CSVHeader = []string{"Métrica", "Valor"}

// WriteCSV writes rs as a header row followed by one row per metric in display order.
func WriteCSV(w io.Writer, rs types.ResultSet) error {
	if !rs.Complete() {
		return fmt.Errorf("export: csv: %w", types.ErrIncompleteResults)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("export: csv: %w", err)
	}
	for _, e := range rs.Entries() {
		if err := cw.Write([]string{e.Metric.Name(), e.Value.String()}); err != nil {
			return fmt.Errorf("export: csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: csv: %w", err)
	}
	return nil
}
