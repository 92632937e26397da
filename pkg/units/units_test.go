package units

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
	}{
		{name: "gigabytes", in: "1 GB", want: 1_000_000_000},
		{name: "megabytes", in: "500 MB", want: 500_000_000},
		{name: "fractional gigabytes", in: "1.2 GB", want: 1_200_000_000},
		{name: "humanize kilobytes", in: "12 kB", want: 12_000},
		{name: "upper case kilobytes", in: "12 KB", want: 12_000},
		{name: "plain bytes", in: "512 B", want: 512},
		{name: "bare number", in: "2048", want: 2048},
		{name: "no space", in: "3MB", want: 3_000_000},
		{name: "binary gibibytes", in: "1 GiB", want: 1 << 30},
		{name: "binary mebibytes", in: "2 MiB", want: 2 << 20},
		{name: "surrounding whitespace", in: "  7 MB ", want: 7_000_000},
		{name: "terabytes", in: "1.5 TB", want: 1_500_000_000_000},
		{name: "rounds fractional megabytes", in: "8.2 MB", want: 8_200_000},
		{name: "rounds fractional gigabytes", in: "2.01 GB", want: 2_010_000_000},
		{name: "rounds thousandths of gigabytes", in: "1.005 GB", want: 1_005_000_000},
		{name: "rounds fractional mebibytes", in: "1.1 MiB", want: 1_153_434},
		{name: "fractional bytes", in: "2.5", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSize_Errors(t *testing.T) {
	for _, in := range []string{"", "GB", "12 XB", "abc MB", "-1 GB", "1 GBB"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseSize(in)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnitParse)
		})
	}
}

func TestBytesToGB(t *testing.T) {
	assert.InDelta(t, 1.5, BytesToGB(1_500_000_000), 1e-12)
	assert.Zero(t, BytesToGB(0))
}

func TestParseTimestamp(t *testing.T) {
	z, err := ParseTimestamp("2024-01-01T00:00:00Z")
	require.NoError(t, err)

	offset, err := ParseTimestamp("2024-01-01T00:00:00+00:00")
	require.NoError(t, err)

	assert.True(t, z.Equal(offset))
	assert.Equal(t, z, offset)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), z)
}

func TestParseTimestamp_Variants(t *testing.T) {
	want := time.Date(2025, 8, 29, 13, 9, 59, 123456789, time.UTC)

	tests := []struct {
		name string
		in   string
	}{
		{name: "slog nanos", in: "2025-08-29T13:09:59.123456789Z"},
		{name: "positive offset", in: "2025-08-29T15:09:59.123456789+02:00"},
		{name: "negative offset", in: "2025-08-29T09:09:59.123456789-04:00"},
		{name: "no zone", in: "2025-08-29T13:09:59.123456789"},
		{name: "space separator", in: "2025-08-29 13:09:59.123456789Z"},
		{name: "lower case z", in: "2025-08-29T13:09:59.123456789z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseTimestamp_Errors(t *testing.T) {
	for _, in := range []string{"", "yesterday", "2024-13-01T00:00:00Z", "2024-01-01"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseTimestamp(in)
			assert.ErrorIs(t, err, ErrTimestampParse)
		})
	}
}
