package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// nullTokens are cell values treated as missing.
var nullTokens = []string{"", "NA", "NaN", "nan", "null", "NULL", "None", "<nil>", "NaT"}

// Frame is one parsed CSV file. Every column is held as text; columns the
// normalizer has coerced are additionally available as timestamps.
type Frame struct {
	df    dataframe.DataFrame
	cols  []string
	nrow  int
	times map[string][]*time.Time
}

func emptyFrame() Frame {
	return Frame{cols: []string{}}
}

// ReadTable parses a comma separated file with a header row. Type detection
// is disabled so identifiers and dates reach the decoders untouched. Short
// rows are padded with missing cells; a header-only file is a valid table
// with zero rows.
func ReadTable(path string) (Frame, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Frame{}, fmt.Errorf("read %s: %w", path, err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	records, err := readRecords(raw)
	if err != nil {
		return Frame{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 1 {
		return Frame{cols: slices.Clone(records[0])}, nil
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nullTokens),
	)
	if df.Err != nil {
		return Frame{}, fmt.Errorf("parse %s: %w", path, df.Err)
	}

	return Frame{
		df:   df,
		cols: df.Names(),
		nrow: df.Nrow(),
	}, nil
}

// readRecords splits raw into rows, padding each data row to the header
// width. Rows wider than the header are rejected.
func readRecords(raw []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("missing header row")
	}

	width := len(records[0])
	for i := 1; i < len(records); i++ {
		switch n := len(records[i]); {
		case n > width:
			return nil, fmt.Errorf("record on line %d: %d fields, header has %d", i+1, n, width)
		case n < width:
			records[i] = append(records[i], make([]string, width-n)...)
		}
	}
	return records, nil
}

func (f Frame) Nrow() int {
	return f.nrow
}

func (f Frame) Columns() []string {
	return slices.Clone(f.cols)
}

func (f Frame) HasColumn(name string) bool {
	return slices.Contains(f.cols, name)
}

// Strings returns the column as text with missing cells as "". It returns
// nil when the column does not exist.
func (f Frame) Strings(name string) []string {
	if !f.HasColumn(name) {
		return nil
	}
	if f.nrow == 0 {
		return []string{}
	}
	values := f.df.Col(name).Records()
	out := make([]string, len(values))
	for i, v := range values {
		v = strings.TrimSpace(v)
		if slices.Contains(nullTokens, v) {
			v = ""
		}
		out[i] = v
	}
	return out
}

// Times returns a normalized timestamp column, or nil if the column was not
// normalized.
func (f Frame) Times(name string) []*time.Time {
	return f.times[name]
}

func (f Frame) withTimes(name string, values []*time.Time) Frame {
	times := make(map[string][]*time.Time, len(f.times)+1)
	for k, v := range f.times {
		times[k] = v
	}
	times[name] = values
	f.times = times
	return f
}
