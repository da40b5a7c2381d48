// Package dsp provides the FIR filter design, convolution, and AGC
// primitives shared by the AFSK and baseband demodulators.
package dsp

import (
	"math"

	"gonum.org/v1/gonum/dsp/window"
)

// WindowType selects the FIR window shape.
type WindowType int

const (
	WindowTruncated WindowType = iota
	WindowCosine
	WindowHamming
	WindowBlackman
	WindowFlatTop
)

// applyWindow multiplies taps in place by the chosen window shape. Hamming
// and Blackman are delegated to gonum.org/v1/gonum/dsp/window; the raised
// cosine and truncated (rectangular) shapes are specific to how the AFSK
// demodulator's prefilter is tapered and are kept local.
func applyWindow(wtype WindowType, taps []float64) {
	switch wtype {
	case WindowHamming:
		window.Hamming(taps)
	case WindowBlackman:
		window.Blackman(taps)
	case WindowFlatTop:
		window.FlatTop(taps)
	case WindowCosine:
		n := len(taps)
		center := 0.5 * float64(n-1)
		for j := range taps {
			taps[j] *= math.Cos((float64(j) - center) / float64(n) * math.Pi)
		}
	case WindowTruncated:
		// Rectangular: leave taps unscaled.
	}
}

// windowShape returns the multiplier for a single tap, used where the
// shape needs to be combined with a sinc before normalization (gen_lowpass
// / gen_bandpass below build the whole kernel at once instead).
func windowShape(wtype WindowType, size, j int) float64 {
	taps := make([]float64, size)
	for i := range taps {
		taps[i] = 1
	}
	applyWindow(wtype, taps)
	return taps[j]
}

// GenLowpass generates a windowed-sinc low pass filter kernel. fc is the
// cutoff frequency as a fraction of the sample rate.
func GenLowpass(fc float64, taps []float64, wtype WindowType) {
	n := len(taps)
	center := 0.5 * float64(n-1)

	for j := 0; j < n; j++ {
		var sinc float64
		x := float64(j) - center
		if x == 0 {
			sinc = 2 * fc
		} else {
			sinc = math.Sin(2*math.Pi*fc*x) / (math.Pi * x)
		}
		taps[j] = sinc * windowShape(wtype, n, j)
	}

	var gain float64
	for _, t := range taps {
		gain += t
	}
	for j := range taps {
		taps[j] /= gain
	}
}

// GenBandpass generates a windowed-sinc band pass filter kernel between f1
// and f2 (fractions of sample rate), normalized for unity gain in the
// middle of the passband.
func GenBandpass(f1, f2 float64, taps []float64, wtype WindowType) {
	n := len(taps)
	center := 0.5 * float64(n-1)

	for j := 0; j < n; j++ {
		var sinc float64
		x := float64(j) - center
		if x == 0 {
			sinc = 2 * (f2 - f1)
		} else {
			sinc = math.Sin(2*math.Pi*f2*x)/(math.Pi*x) - math.Sin(2*math.Pi*f1*x)/(math.Pi*x)
		}
		taps[j] = sinc * windowShape(wtype, n, j)
	}

	w := 2 * math.Pi * (f1 + f2) / 2
	var gain float64
	for j := 0; j < n; j++ {
		gain += 2 * taps[j] * math.Cos((float64(j)-center)*w)
	}
	for j := range taps {
		taps[j] /= gain
	}
}

// GenRaisedCosineLowpass generates a root-raised-cosine low pass kernel
// used by the 'A'/'E' AFSK profile, normalized for unity gain
// at DC. samplesPerSymbol is sample rate / baud.
func GenRaisedCosineLowpass(taps []float64, rolloff, samplesPerSymbol float64) {
	n := len(taps)
	center := 0.5 * float64(n-1)

	for j := 0; j < n; j++ {
		t := (float64(j) - center) / samplesPerSymbol
		taps[j] = rrcSample(t, rolloff)
	}

	var gain float64
	for _, t := range taps {
		gain += t
	}
	for j := range taps {
		taps[j] /= gain
	}
}

func rrcSample(t, rolloff float64) float64 {
	if t == 0 {
		return 1
	}
	if rolloff > 0 {
		denom := 1 - math.Pow(4*rolloff*t, 2)
		if math.Abs(denom) < 1e-9 {
			return math.Pi / 4 * sinc(1/(2*rolloff))
		}
		return sinc(t) * math.Cos(math.Pi*rolloff*t) / denom
	}
	return sinc(t)
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// PushSample shifts the ring buffer down and inserts val at index 0.
func PushSample(val float64, buf []float64) {
	copy(buf[1:], buf[:len(buf)-1])
	buf[0] = val
}

// Convolve computes the dot product of data and filter over the first n
// taps.
func Convolve(data, filter []float64) float64 {
	var sum float64
	for j := range filter {
		sum += filter[j] * data[j]
	}
	return sum
}

// AGC tracks a fast-attack/slow-decay peak and valley envelope and
// normalizes the signal to roughly [-0.5, +0.5].
type AGC struct {
	FastAttack float64
	SlowDecay  float64
	Peak       float64
	Valley     float64
}

// Update pushes one sample through the envelope tracker and returns the
// normalized value.
func (a *AGC) Update(in float64) float64 {
	if in >= a.Peak {
		a.Peak = in*a.FastAttack + a.Peak*(1-a.FastAttack)
	} else {
		a.Peak = in*a.SlowDecay + a.Peak*(1-a.SlowDecay)
	}
	if in <= a.Valley {
		a.Valley = in*a.FastAttack + a.Valley*(1-a.FastAttack)
	} else {
		a.Valley = in*a.SlowDecay + a.Valley*(1-a.SlowDecay)
	}
	if a.Peak > a.Valley {
		return (in - 0.5*(a.Peak+a.Valley)) / (a.Peak - a.Valley)
	}
	return 0
}
