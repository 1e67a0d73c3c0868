package stats

import (
	"math"

	"SweepSim/internal/domain/models"
)

// minSamples is the default observation count a tracker needs before it will
// report a non-zero z-score. Early readings on a handful of samples are
// dominated by noise.
const minSamples = 20

// Welford is an online mean/variance accumulator over an unbounded stream.
// Single pass, O(1) per observation, numerically stable.
type Welford struct {
	n    int
	mean float64
	m2   float64
	min  int
}

// NewWelford returns an accumulator with the default warm-up gate.
func NewWelford() *Welford {
	return &Welford{min: minSamples}
}

// NewWelfordMin overrides the warm-up sample count. Values below 2 are
// raised to 2 so variance stays defined.
func NewWelfordMin(min int) *Welford {
	if min < 2 {
		min = 2
	}
	return &Welford{min: min}
}

func (w *Welford) Add(x float64) {
	w.n++
	delta := x - w.mean
	w.mean += delta / float64(w.n)
	w.m2 += delta * (x - w.mean)
}

func (w *Welford) Count() int    { return w.n }
func (w *Welford) Mean() float64 { return w.mean }

// Variance is the sample variance (n-1 denominator), clamped at zero.
func (w *Welford) Variance() float64 {
	if w.n < 2 {
		return 0
	}
	v := w.m2 / float64(w.n-1)
	if v < 0 {
		v = 0
	}
	return v
}

func (w *Welford) StdDev() float64 {
	return math.Sqrt(w.Variance())
}

// ZScore reports how many standard deviations x sits from the running mean.
// Returns 0 while warming up or when the stream is constant.
func (w *Welford) ZScore(x float64) float64 {
	if w.n < w.min {
		return 0
	}
	sd := w.StdDev()
	if sd == 0 {
		return 0
	}
	return (x - w.mean) / sd
}

// Summary captures the tracker state at the instant x was observed.
func (w *Welford) Summary(x float64) models.AnomalySummary {
	return models.AnomalySummary{
		Value:  x,
		Mean:   w.mean,
		StdDev: w.StdDev(),
		ZScore: w.ZScore(x),
		Count:  w.n,
	}
}

func (w *Welford) Reset() {
	w.n, w.mean, w.m2 = 0, 0, 0
}

// Window is a bounded rolling mean/variance tracker over the last size
// observations. Eviction updates running sums, so Add stays O(1).
type Window struct {
	buf  []float64
	head int
	n    int
	sum  float64
	sum2 float64
	min  int
}

// NewWindow returns a tracker over the trailing size observations. The
// warm-up gate is the smaller of the default gate and half the window.
func NewWindow(size int) *Window {
	if size < 2 {
		size = 2
	}
	min := minSamples
	if half := size / 2; half < min {
		min = half
	}
	if min < 2 {
		min = 2
	}
	return &Window{buf: make([]float64, size), min: min}
}

func (w *Window) Add(x float64) {
	if w.n == len(w.buf) {
		old := w.buf[w.head]
		w.sum -= old
		w.sum2 -= old * old
	} else {
		w.n++
	}
	w.buf[w.head] = x
	w.head = (w.head + 1) % len(w.buf)
	w.sum += x
	w.sum2 += x * x
}

func (w *Window) Count() int { return w.n }

func (w *Window) Mean() float64 {
	if w.n == 0 {
		return 0
	}
	return w.sum / float64(w.n)
}

func (w *Window) Variance() float64 {
	if w.n < 2 {
		return 0
	}
	n := float64(w.n)
	mean := w.sum / n
	v := (w.sum2 - n*mean*mean) / (n - 1)
	if v < 0 {
		v = 0
	}
	return v
}

func (w *Window) StdDev() float64 {
	return math.Sqrt(w.Variance())
}

func (w *Window) ZScore(x float64) float64 {
	if w.n < w.min {
		return 0
	}
	sd := w.StdDev()
	if sd == 0 {
		return 0
	}
	return (x - w.Mean()) / sd
}

func (w *Window) Summary(x float64) models.AnomalySummary {
	return models.AnomalySummary{
		Value:  x,
		Mean:   w.Mean(),
		StdDev: w.StdDev(),
		ZScore: w.ZScore(x),
		Count:  w.n,
	}
}

func (w *Window) Reset() {
	w.head, w.n, w.sum, w.sum2 = 0, 0, 0, 0
}

// Tracker is satisfied by both accumulator flavors so detectors can be
// configured with either.
type Tracker interface {
	Add(x float64)
	Count() int
	Mean() float64
	StdDev() float64
	ZScore(x float64) float64
	Summary(x float64) models.AnomalySummary
	Reset()
}
