package timecode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"00:00:00,000", 0},
		{"00:00:01,000", 1000},
		{"00:00:02,500", 2500},
		{"01:02:03,004", 3723004},
		{"123:00:00,001", 123*3600000 + 1},
		// minutes and seconds are not range checked
		{"00:75:99,000", 75*60000 + 99*1000},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		"00:00:01.000",
		"00:00:01",
		"0:0:1,000",
		"00:00:01,00",
		"00:00:01,0000",
		"aa:bb:cc,ddd",
		" 00:00:01,000",
		"00-00-01,000",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, in, fe.Text)
		})
	}
}

func TestParse_DotSeparatorReason(t *testing.T) {
	_, err := Parse("00:00:01.000")
	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe.Reason, "','")
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "00:00:00,000", Format(0))
	assert.Equal(t, "00:00:02,500", Format(2500))
	assert.Equal(t, "01:02:03,004", Format(3723004))
	assert.Equal(t, "100:00:00,000", Format(100*3600000))
	assert.Equal(t, "00:00:00,000", Format(-5))
}

func TestRoundTrip(t *testing.T) {
	for _, ts := range []string{"00:00:00,000", "00:59:59,999", "12:34:56,789", "99:00:00,001"} {
		ms, err := Parse(ts)
		require.NoError(t, err)
		assert.Equal(t, ts, Format(ms))
	}

	for _, ms := range []int64{0, 1, 999, 1000, 59999, 3599999, 3600000, 86399999, 360000000} {
		got, err := Parse(Format(ms))
		require.NoError(t, err)
		assert.Equal(t, ms, got)
	}
}

func TestToVTT(t *testing.T) {
	assert.Equal(t, "00:00:01.250", ToVTT("00:00:01,250"))
	assert.Equal(t, "00:00:01.250", ToVTT("00:00:01.250"))
}
