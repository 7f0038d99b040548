package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/interday/reliastat/pkg/types"
)

const utf8BOM = "\xef\xbb\xbf"

// groupedInt matches an integer part written with "." thousands separators.
var groupedInt = regexp.MustCompile(`^[+-]?[0-9]{1,3}(\.[0-9]{3})+$`)

// Missing-value policies.
const (
	// MissingRows drops a row when either of its two cells is missing, which
	// keeps the positional pairing intact.
	MissingRows = "rows"

	// MissingColumns drops missing cells from each column independently. If
	// the columns end up with different lengths the analysis fails.
	MissingColumns = "columns"
)

// Options controls CSV parsing.
type Options struct {
	// Delimiter is the field separator. Defaults to ",".
	Delimiter string `yaml:"delimiter"`

	// Missing is MissingRows or MissingColumns. Defaults to MissingRows.
	Missing string `yaml:"missing"`

	// DecimalComma parses "1,5" as 1.5 and "1.234,5" as 1234.5. Requires a
	// delimiter other than ",".
	DecimalComma bool `yaml:"decimal_comma"`
}

// DefaultOptions returns comma-separated parsing with row-wise dropping.
func DefaultOptions() Options {
	return Options{Delimiter: ",", Missing: MissingRows}
}

// Validate checks the delimiter and missing-value policy.
func (o Options) Validate() error {
	if o.Delimiter != "" {
		r, size := utf8.DecodeRuneInString(o.Delimiter)
		if size != len(o.Delimiter) || r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
			return fmt.Errorf("ingest: invalid delimiter %q", o.Delimiter)
		}
	}
	if o.DecimalComma && o.comma() == ',' {
		return fmt.Errorf("ingest: decimal_comma needs a delimiter other than \",\"")
	}
	switch o.Missing {
	case "", MissingRows, MissingColumns:
	default:
		return fmt.Errorf("ingest: unknown missing policy %q: want rows|columns", o.Missing)
	}
	return nil
}

func (o Options) comma() rune {
	if o.Delimiter == "" {
		return ','
	}
	r, _ := utf8.DecodeRuneInString(o.Delimiter)
	return r
}

// Read parses a CSV with a header row and returns the Day 1 and Day 2 columns.
func Read(r io.Reader, opts Options) (day1, day2 []float64, err error) {
	if err := opts.Validate(); err != nil {
		return nil, nil, err
	}

	br := bufio.NewReader(r)
	if b, _ := br.Peek(len(utf8BOM)); string(b) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.Comma = opts.comma()
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: file is empty", types.ErrMalformedInput)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", types.ErrMalformedInput, err)
	}
	if len(header) < 2 {
		return nil, nil, fmt.Errorf("%w: want two columns (Day 1, Day 2), found %d",
			types.ErrMalformedInput, len(header))
	}

	rowwise := opts.Missing != MissingColumns
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", types.ErrMalformedInput, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue // blank line
		}
		line, _ := cr.FieldPos(0)

		a, okA, err := cell(rec, 0, line, opts.DecimalComma)
		if err != nil {
			return nil, nil, err
		}
		b, okB, err := cell(rec, 1, line, opts.DecimalComma)
		if err != nil {
			return nil, nil, err
		}

		if rowwise {
			if okA && okB {
				day1 = append(day1, a)
				day2 = append(day2, b)
			}
			continue
		}
		if okA {
			day1 = append(day1, a)
		}
		if okB {
			day2 = append(day2, b)
		}
	}

	if len(day1) == 0 && len(day2) == 0 {
		return nil, nil, fmt.Errorf("%w: no data rows", types.ErrMalformedInput)
	}
	return day1, day2, nil
}

// ReadPaired reads r and validates the result as a PairedSample.
func ReadPaired(r io.Reader, opts Options) (types.PairedSample, error) {
	day1, day2, err := Read(r, opts)
	if err != nil {
		return types.PairedSample{}, err
	}
	return types.NewPairedSample(day1, day2)
}

// cell parses column col of rec. ok is false for a missing value.
func cell(rec []string, col, line int, decimalComma bool) (v float64, ok bool, err error) {
	if col >= len(rec) {
		return 0, false, nil
	}
	s := strings.TrimSpace(rec[col])
	if decimalComma {
		s = fromDecimalComma(s)
	}
	if isMissing(s) {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: line %d column %d: %q is not a number",
			types.ErrMalformedInput, line, col+1, rec[col])
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, nil
	}
	return v, true, nil
}

// fromDecimalComma rewrites a decimal-comma number in "." notation. Dots in
// the integer part are dropped when they group digits in threes; otherwise the
// string is left for ParseFloat to reject.
func fromDecimalComma(s string) string {
	if strings.Count(s, ",") > 1 {
		return s
	}
	intPart, frac, hasComma := strings.Cut(s, ",")
	if groupedInt.MatchString(intPart) {
		intPart = strings.ReplaceAll(intPart, ".", "")
	}
	if !hasComma {
		return intPart
	}
	return intPart + "." + frac
}

func isMissing(s string) bool {
	switch strings.ToLower(s) {
	case "", "na", "n/a", "nan", "null", "none":
		return true
	}
	return false
}
