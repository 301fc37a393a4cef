package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAggregationMode(t *testing.T) {
	testCases := []struct {
		input   string
		want    AggregationMode
		wantErr bool
	}{
		{input: "", want: AggregationLenient},
		{input: "lenient", want: AggregationLenient},
		{input: "strict", want: AggregationStrict},
		{input: "STRICT", wantErr: true},
		{input: "sometimes", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseAggregationMode(tc.input)
			assert.Equal(t, tc.wantErr, err != nil)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAggregationMode_Strict(t *testing.T) {
	assert.True(t, AggregationStrict.Strict())
	assert.False(t, AggregationLenient.Strict())
}
