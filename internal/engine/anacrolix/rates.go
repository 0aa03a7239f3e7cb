package anacrolix

import "time"

// rateWindow is how many samples are averaged, about three seconds at the
// controller's tick.
const rateWindow = 6

// rateSampler turns cumulative byte counters into smoothed per-second rates.
type rateSampler struct {
	at      time.Time
	read    int64
	written int64
	down    []int64
	up      []int64
}

func newRateSampler() *rateSampler {
	return &rateSampler{
		down: make([]int64, 0, rateWindow),
		up:   make([]int64, 0, rateWindow),
	}
}

// sample records the counters at now and returns the averaged download and
// upload rates. The first sample only establishes a baseline.
func (s *rateSampler) sample(read, written int64, now time.Time) (int64, int64) {
	prevAt, prevRead, prevWritten := s.at, s.read, s.written
	s.at, s.read, s.written = now, read, written

	if prevAt.IsZero() {
		return 0, 0
	}
	dt := now.Sub(prevAt).Seconds()
	if dt <= 0 {
		return average(s.down), average(s.up)
	}

	deltaRead := read - prevRead
	deltaWritten := written - prevWritten
	if deltaRead < 0 {
		deltaRead = 0
	}
	if deltaWritten < 0 {
		deltaWritten = 0
	}

	s.down = push(s.down, int64(float64(deltaRead)/dt))
	s.up = push(s.up, int64(float64(deltaWritten)/dt))
	return average(s.down), average(s.up)
}

func push(window []int64, v int64) []int64 {
	window = append(window, v)
	if len(window) > rateWindow {
		window = window[1:]
	}
	return window
}

func average(window []int64) int64 {
	if len(window) == 0 {
		return 0
	}
	var sum int64
	for _, v := range window {
		sum += v
	}
	return sum / int64(len(window))
}
