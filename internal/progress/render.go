// Package progress turns engine counters into the single self-overwriting
// status line shown while a transfer runs.
package progress

import (
	"fmt"

	"github.com/accelara/curlent/internal/engine"
	"github.com/accelara/curlent/internal/utils"
)

const (
	minBarWidth = 10
	maxBarWidth = 50
)

// Sample is what one status line shows: Done of Total bytes moving at Rate.
type Sample struct {
	Done     int64
	Total    int64
	Rate     int64
	Progress float64
}

// TransferSample describes the download side of st.
func TransferSample(st engine.TransferStatus) Sample {
	return Sample{
		Done:     st.Downloaded,
		Total:    st.TotalSize,
		Rate:     st.DownloadRate,
		Progress: clamp01(st.Progress),
	}
}

// SeedSample describes upload progress toward total size times ratio. A
// zero target is already met, so the bar shows full.
func SeedSample(st engine.TransferStatus, ratio float64) Sample {
	target := int64(float64(st.TotalSize) * ratio)
	p := 1.0
	if target > 0 {
		p = clamp01(float64(st.Uploaded) / float64(target))
	}
	return Sample{
		Done:     st.Uploaded,
		Total:    target,
		Rate:     st.UploadRate,
		Progress: p,
	}
}

// RenderLine formats s as "45% [###|   ] 1.2 GB/2.5 GB 3.1 MB/s eta 7m 2s",
// sizing the bar so the line fits in width columns.
func RenderLine(s Sample, width int) string {
	p := clamp01(s.Progress)
	percent := int(p * 100)

	done, total := utils.FormatPair(s.Done, s.Total)
	speed := utils.FormatSize(s.Rate) + "/s"

	eta := utils.Infinity
	if s.Total > 0 {
		eta = utils.FormatTime(utils.ETA(s.Total-s.Done, s.Rate))
	}

	fixed := 6 + 2 + len(done) + 1 + len(total) + 1 + len(speed) + 5 + len(eta)
	bar := utils.ProgressBar(p, BarWidth(width, fixed))

	return fmt.Sprintf("%3d%% %s %s/%s %s eta %s", percent, bar, done, total, speed, eta)
}

// BarWidth is what is left of width after fixed columns, kept in [10, 50].
func BarWidth(width, fixed int) int {
	w := width - fixed - 2
	if w < minBarWidth {
		return minBarWidth
	}
	if w > maxBarWidth {
		return maxBarWidth
	}
	return w
}

// MetadataLine is shown while a magnet waits for its info dictionary.
func MetadataLine(st engine.TransferStatus) string {
	return fmt.Sprintf("Waiting for metadata... peers: %d, DHT nodes: %d", st.Peers, st.DHTNodes)
}

func clamp01(p float64) float64 {
	if p != p || p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
