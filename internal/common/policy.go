package common

import "fmt"

// AggregationMode decides what read paths do when a secondary query (counts, like state,
// replies) fails.
type AggregationMode string

const (
	// AggregationLenient degrades the failed piece to its zero value.
	AggregationLenient AggregationMode = "lenient"
	// AggregationStrict fails the whole read.
	AggregationStrict AggregationMode = "strict"
)

func ParseAggregationMode(s string) (AggregationMode, error) {
	switch AggregationMode(s) {
	case "", AggregationLenient:
		return AggregationLenient, nil
	case AggregationStrict:
		return AggregationStrict, nil
	default:
		return "", fmt.Errorf("unknown aggregation mode %q", s)
	}
}

func (m AggregationMode) Strict() bool {
	return m == AggregationStrict
}
