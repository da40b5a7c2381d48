package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestGenLowpassUnityGainAtDC(t *testing.T) {
	taps := make([]float64, 63)
	GenLowpass(0.1, taps, WindowHamming)

	var sum float64
	for _, v := range taps {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestGenLowpassSymmetric(t *testing.T) {
	taps := make([]float64, 41)
	GenLowpass(0.2, taps, WindowTruncated)

	n := len(taps)
	for j := 0; j < n/2; j++ {
		assert.InDelta(t, taps[j], taps[n-1-j], 1e-9)
	}
}

func TestGenBandpassRejectsDC(t *testing.T) {
	taps := make([]float64, 65)
	GenBandpass(0.15, 0.25, taps, WindowHamming)

	var sum float64
	for _, v := range taps {
		sum += v
	}
	assert.InDelta(t, 0.0, sum, 0.05)
}

func TestPushSampleShiftsRing(t *testing.T) {
	buf := []float64{1, 2, 3, 4}
	PushSample(9, buf)
	assert.Equal(t, []float64{9, 1, 2, 3}, buf)
}

func TestConvolveDotProduct(t *testing.T) {
	data := []float64{1, 2, 3}
	filter := []float64{0.5, 0.5, 0.5}
	assert.InDelta(t, 3.0, Convolve(data, filter), 1e-9)
}

func TestAGCTracksConstantSignal(t *testing.T) {
	a := &AGC{FastAttack: 0.5, SlowDecay: 0.1}
	var out float64
	for i := 0; i < 200; i++ {
		v := 0.5
		if i%2 == 1 {
			v = -0.5
		}
		out = a.Update(v)
	}
	assert.InDelta(t, 0.0, out, 0.2)
}

// Property: pushing n samples through PushSample never changes the buffer
// length, and the most recently pushed value always ends up at index 0.
func TestPushSamplePropertyHeadIsLastPushed(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 32).Draw(t, "n")
		buf := make([]float64, n)
		var last float64
		pushes := rapid.IntRange(0, 50).Draw(t, "pushes")
		for i := 0; i < pushes; i++ {
			v := rapid.Float64Range(-1000, 1000).Draw(t, "v")
			PushSample(v, buf)
			last = v
		}
		if pushes > 0 {
			require.Equal(t, last, buf[0])
		}
		require.Len(t, buf, n)
	})
}

func TestGenRaisedCosineLowpassUnityGainAtDC(t *testing.T) {
	taps := make([]float64, 49)
	GenRaisedCosineLowpass(taps, 0.5, 8)

	var sum float64
	for _, v := range taps {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.False(t, math.IsNaN(sum))
}
