package utils

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBytes(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"512", 512, false},
		{"4MB", 4 << 20, false},
		{"500kb", 500 << 10, false},
		{"1.5G", 3 << 29, false},
		{" 2 TB ", 2 << 40, false},
		{"fast", 0, true},
		{"-1MB", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseBytes(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSizeUnitPicksLargestUnitBelow1024(t *testing.T) {
	tests := []struct {
		n    int64
		want int
	}{
		{0, 0},
		{1023, 0},
		{1024, 1},
		{1<<20 - 1, 1},
		{1 << 20, 2},
		{1 << 30, 3},
		{1 << 40, 4},
		{1 << 50, 4},
		{1 << 62, 4},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, SizeUnit(tc.n), "SizeUnit(%d)", tc.n)
	}
}

func TestFormatSizeNeverExceedsTB(t *testing.T) {
	assert.Equal(t, "0.0 B", FormatSize(0))
	assert.Equal(t, "1023.0 B", FormatSize(1023))
	assert.Equal(t, "1.0 KB", FormatSize(1024))
	assert.Equal(t, "1.5 MB", FormatSize(3<<19))
	assert.Equal(t, "1024.0 TB", FormatSize(1<<50))
}

func TestFormatSizeScaledValueBelow1024(t *testing.T) {
	for _, n := range []int64{1, 999, 1500, 1 << 25, 7 << 33, 5 << 41} {
		s := FormatSize(n)
		if strings.HasSuffix(s, " TB") {
			continue
		}
		var v float64
		var unit string
		_, err := fmt.Sscan(s, &v, &unit)
		require.NoError(t, err)
		assert.Less(t, v, 1024.0, s)
	}
}

func TestFormatPairSharesUnit(t *testing.T) {
	done, total := FormatPair(536870912, 1073741824)
	assert.Equal(t, "0.5 GB", done)
	assert.Equal(t, "1.0 GB", total)

	done, total = FormatPair(3<<30, 1<<30)
	assert.Equal(t, "3.0 GB", done)
	assert.Equal(t, "1.0 GB", total)

	done, total = FormatPair(100, 0)
	assert.Equal(t, "100.0 B", done)
	assert.Equal(t, "0.0 B", total)
}

func TestIsTorrentLike(t *testing.T) {
	assert.True(t, IsTorrentLike("magnet:?xt=urn:btih:abc"))
	assert.True(t, IsTorrentLike("/tmp/Ubuntu.TORRENT"))
	assert.False(t, IsTorrentLike("https://example.com/file.iso"))
	assert.True(t, IsMagnet("magnet:?xt"))
	assert.False(t, IsMagnet("x.torrent"))
}
