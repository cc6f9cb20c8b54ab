// internal/report/aggregate.go
package report

import (
	"math"
	"sort"
	"strings"

	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/types"
)

/*
 * Bucketed aggregation.
 *
 * Rows are bucketed by the ordered tuple of their dimension values (0-3
 * dimensions, first dimension is the primary grouping key), preserving
 * first-seen order, then each bucket is reduced with the selected function.
 *
 * Numeric discipline: non-numeric metric values are excluded from the
 * reduction but still count toward the bucket's Count. A bucket whose
 * numeric set is empty reduces to 0, never NaN; an empty input row set
 * yields an empty bucket list, not a singleton zero bucket.
 *
 * stddev is the population standard deviation. median averages the two
 * middle values for even-length sets.
 */

// bucketKeySep joins dimension values into a map key. Unit separator keeps
// composite keys unambiguous for dimension values containing commas.
const bucketKeySep = "\x1f"

type bucket struct {
	key    []string
	values []float64
	count  int
}

// Aggregate buckets rows by dimension values and reduces the metric field.
// Dimensions beyond the tuple passed in are the caller's concern; the planner
// clamps to types.MaxDimensions before calling.
func Aggregate(rows []types.Row, metricField string, agg types.Aggregation, dimensions []string) []types.ResultBucket {
	if len(rows) == 0 {
		return []types.ResultBucket{}
	}

	buckets := make(map[string]*bucket)
	var order []string

	for _, row := range rows {
		key := make([]string, len(dimensions))
		for i, dim := range dimensions {
			key[i] = stringify(row.Values[dim])
		}
		mapKey := strings.Join(key, bucketKeySep)

		b, ok := buckets[mapKey]
		if !ok {
			b = &bucket{key: key}
			buckets[mapKey] = b
			order = append(order, mapKey)
		}

		b.count++
		if v, ok := asNumber(row.Values[metricField]); ok {
			b.values = append(b.values, v)
		}
	}

	out := make([]types.ResultBucket, 0, len(order))
	for _, mapKey := range order {
		b := buckets[mapKey]
		value := float64(b.count)
		if agg != types.AggCount {
			value = Reduce(agg, b.values)
		}
		out = append(out, types.ResultBucket{
			DimensionKey: b.key,
			Value:        value,
			Count:        b.count,
		})
	}
	return out
}

// Reduce applies an aggregation function to a numeric set.
// An empty set reduces to 0 for every function.
func Reduce(agg types.Aggregation, values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	switch agg {
	case types.AggCount:
		return float64(len(values))
	case types.AggAvg:
		return sum(values) / float64(len(values))
	case types.AggMin:
		m := values[0]
		for _, v := range values[1:] {
			if v < m {
				m = v
			}
		}
		return m
	case types.AggMax:
		m := values[0]
		for _, v := range values[1:] {
			if v > m {
				m = v
			}
		}
		return m
	case types.AggMedian:
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)
		mid := len(sorted) / 2
		if len(sorted)%2 == 0 {
			return (sorted[mid-1] + sorted[mid]) / 2
		}
		return sorted[mid]
	case types.AggStdDev:
		mean := sum(values) / float64(len(values))
		var variance float64
		for _, v := range values {
			d := v - mean
			variance += d * d
		}
		return math.Sqrt(variance / float64(len(values)))
	default:
		// sum, and the default for unknown aggregations
		return sum(values)
	}
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
