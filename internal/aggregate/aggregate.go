// Package aggregate holds the guarded counting and statistics helpers every
// dashboard view is computed with. None of them fail on empty input.
package aggregate

import (
	"math"
	"reflect"

	"github.com/montanaflynn/stats"

	"copurchase-dashboard/internal/models"
)

// SafeCount returns the row count of t, or 0 for a nil table.
func SafeCount[T any](t *models.Table[T]) int {
	return t.Len()
}

// SafeCompute evaluates fn and returns def when fn errors, panics, or
// produces an undefined value (nil, NaN, ±Inf).
func SafeCompute[T any](fn func() (T, error), def T) (result T) {
	defer func() {
		if r := recover(); r != nil {
			result = def
		}
	}()

	v, err := fn()
	if err != nil || undefined(v) {
		return def
	}
	return v
}

func undefined(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x) || math.IsInf(x, 0)
	case float32:
		return math.IsNaN(float64(x)) || math.IsInf(float64(x), 0)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// Rate is matching/total as a percentage, with 0/0 defined as 0.
func Rate(matching, total int) float64 {
	return SafeCompute(func() (float64, error) {
		return float64(matching) / float64(total) * 100, nil
	}, 0)
}

// Ratio divides without the percentage scaling; a zero denominator yields 0.
func Ratio(num, den float64) float64 {
	return SafeCompute(func() (float64, error) {
		return num / den, nil
	}, 0)
}

// Describe mirrors a count/mean/std/min/quartiles/max summary. Std is the
// sample deviation and is 0 for fewer than two values.
func Describe(values []float64) models.Description {
	if len(values) == 0 {
		return models.Description{}
	}
	data := stats.Float64Data(values)

	guard := func(fn func(stats.Float64Data) (float64, error)) float64 {
		return SafeCompute(func() (float64, error) { return fn(data) }, 0)
	}
	percentile := func(p float64) float64 {
		return SafeCompute(func() (float64, error) { return stats.Percentile(data, p) }, 0)
	}

	return models.Description{
		Count:  len(values),
		Mean:   guard(stats.Mean),
		Std:    guard(stats.StandardDeviationSample),
		Min:    guard(stats.Min),
		Q1:     percentile(25),
		Median: guard(stats.Median),
		Q3:     percentile(75),
		Max:    guard(stats.Max),
	}
}

// Histogram buckets integer values into at most bins equal-width, half-open
// ranges covering min..max.
func Histogram(values []int, bins int) []models.HistogramBin {
	if len(values) == 0 || bins <= 0 {
		return []models.HistogramBin{}
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	span := hi - lo + 1
	width := (span + bins - 1) / bins
	n := (span + width - 1) / width

	out := make([]models.HistogramBin, n)
	for i := range out {
		out[i] = models.HistogramBin{Lower: lo + i*width, Upper: lo + (i+1)*width}
	}
	for _, v := range values {
		out[(v-lo)/width].Count++
	}
	return out
}
