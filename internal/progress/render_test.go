package progress

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/accelara/curlent/internal/engine"
)

func TestRenderLineHalfGiB(t *testing.T) {
	st := engine.TransferStatus{
		HasMetadata:  true,
		TotalSize:    1073741824,
		Downloaded:   536870912,
		Progress:     0.5,
		DownloadRate: 1 << 20,
	}
	line := RenderLine(TransferSample(st), 80)

	assert.True(t, strings.HasPrefix(line, " 50% ["), line)
	assert.Contains(t, line, "0.5 GB/1.0 GB")
	assert.Contains(t, line, "1.0 MB/s")
	assert.True(t, strings.HasSuffix(line, "eta 8m 32s"), line)
}

func TestRenderLineZeroRateShowsInfinity(t *testing.T) {
	line := RenderLine(Sample{Done: 10, Total: 100, Progress: 0.1}, 80)
	assert.True(t, strings.HasSuffix(line, "eta ∞"), line)
}

func TestRenderLineZeroTotal(t *testing.T) {
	assert.NotPanics(t, func() {
		line := RenderLine(TransferSample(engine.TransferStatus{DownloadRate: 100}), 80)
		assert.Contains(t, line, "0.0 B/0.0 B")
		assert.True(t, strings.HasSuffix(line, "eta ∞"), line)
	})
}

func TestBarWidthClamped(t *testing.T) {
	assert.Equal(t, 10, BarWidth(20, 41))
	assert.Equal(t, 10, BarWidth(0, 0))
	assert.Equal(t, 37, BarWidth(80, 41))
	assert.Equal(t, 50, BarWidth(400, 41))
}

func TestSeedSample(t *testing.T) {
	st := engine.TransferStatus{TotalSize: 1000, Uploaded: 500, UploadRate: 50}

	s := SeedSample(st, 2.0)
	assert.Equal(t, int64(2000), s.Total)
	assert.Equal(t, int64(500), s.Done)
	assert.InDelta(t, 0.25, s.Progress, 1e-9)
	assert.Equal(t, int64(50), s.Rate)

	s = SeedSample(st, 0.25)
	assert.Equal(t, 1.0, s.Progress)

	s = SeedSample(st, 0)
	assert.Equal(t, int64(0), s.Total)
	assert.Equal(t, 1.0, s.Progress)

	s = SeedSample(engine.TransferStatus{Uploaded: 10}, 2)
	assert.Equal(t, 1.0, s.Progress)
}

func TestReporterOverwritesLine(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewWithWriters(&out, &errOut, false, func() int { return 100 })

	r.Transfer(engine.TransferStatus{TotalSize: 100, Downloaded: 10, Progress: 0.1})
	r.Transfer(engine.TransferStatus{TotalSize: 100, Downloaded: 20, Progress: 0.2})

	got := errOut.String()
	assert.Equal(t, 2, strings.Count(got, "\r"))
	assert.Equal(t, 2, strings.Count(got, "\033[K"))
	assert.NotContains(t, got, "\n")
	assert.Empty(t, out.String())

	r.Alert("Kill switch: interface %s is down", "wg0")
	assert.True(t, strings.HasSuffix(errOut.String(), "\033[K\nKill switch: interface wg0 is down\n"))
}

func TestReporterQuiet(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewWithWriters(&out, &errOut, true, nil)

	r.Metadata(engine.TransferStatus{Peers: 3})
	r.Transfer(engine.TransferStatus{TotalSize: 1})
	r.Seeding(engine.TransferStatus{TotalSize: 1}, 1)
	r.Info("Name: %s", "x")
	r.Notice("Seeding complete!")
	assert.Empty(t, out.String())
	assert.Empty(t, errOut.String())

	r.Alert("Interrupted")
	assert.Equal(t, "Interrupted\n", errOut.String())
}

func TestMetadataLine(t *testing.T) {
	line := MetadataLine(engine.TransferStatus{Peers: 4, DHTNodes: 120})
	assert.Equal(t, "Waiting for metadata... peers: 4, DHT nodes: 120", line)
}
