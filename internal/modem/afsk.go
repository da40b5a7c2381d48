package modem

import (
	"math"

	"github.com/kb9xyz/tncmodem/internal/dsp"
	"github.com/kb9xyz/tncmodem/internal/tncconfig"
)

// afskState holds the two local-oscillator I/Q correlators (mark and
// space) and their raised-cosine low pass filters. This is the
// simplified free-running oscillator design: no per-tone bandpass banks,
// just quadrature mixing against each tone followed by a shared RRC
// low pass.
type afskState struct {
	preFilter    []float64
	preFilterBuf []float64
	usePrefilter bool

	lpFilterTaps   int
	markI, markQ   []float64
	spaceI, spaceQ []float64

	markOscPhase, markOscDelta   uint32
	spaceOscPhase, spaceOscDelta uint32

	lpFilter []float64

	mAGC, sAGC dsp.AGC

	// spaceGain[j] biases slicer j's comparison; geometric ladder from
	// 0.5 to 4.0 so the parallel slicers cover a +-6 dB tone imbalance.
	spaceGain []float64
}

// Multi-slicer space gain range. Rather than hunting for the one best
// slicing threshold, the "+" option runs parallel slicers whose space
// gains form a geometric ladder over this range.
const (
	minSpaceGain = 0.5
	maxSpaceGain = 4.0
)

// NewAFSK builds an AFSK demodulator for the given mark/space tones.
func NewAFSK(cfg tncconfig.Channel, sampleRate, baud, markFreq, spaceFreq int, sink BitSink) *DemodState {
	a := &afskState{usePrefilter: true}

	var preFilterBaud float64
	var preLenSym float64
	var preWindow dsp.WindowType
	if baud > 600 {
		preFilterBaud = 0.155
		preLenSym = 383 * 1200.0 / 44100.0
		preWindow = dsp.WindowTruncated
	} else {
		preFilterBaud = 0.87
		preLenSym = 1.857
		preWindow = dsp.WindowCosine
	}
	preFilterTaps := int(preLenSym*float64(sampleRate)/float64(baud)) | 1
	a.preFilter = make([]float64, preFilterTaps)
	a.preFilterBuf = make([]float64, preFilterTaps)
	lowF := (float64(markFreq) - preFilterBaud*float64(baud)) / float64(sampleRate)
	highF := (float64(spaceFreq) + preFilterBaud*float64(baud)) / float64(sampleRate)
	if markFreq > spaceFreq {
		lowF = (float64(spaceFreq) - preFilterBaud*float64(baud)) / float64(sampleRate)
		highF = (float64(markFreq) + preFilterBaud*float64(baud)) / float64(sampleRate)
	}
	dsp.GenBandpass(lowF, highF, a.preFilter, preWindow)

	rrcWidthSym := 2.80
	rrcRolloff := 0.20
	lpTaps := int(rrcWidthSym*float64(sampleRate)/float64(baud)) | 1
	a.lpFilterTaps = lpTaps
	a.lpFilter = make([]float64, lpTaps)
	dsp.GenRaisedCosineLowpass(a.lpFilter, rrcRolloff, float64(sampleRate)/float64(baud))

	a.markI = make([]float64, lpTaps)
	a.markQ = make([]float64, lpTaps)
	a.spaceI = make([]float64, lpTaps)
	a.spaceQ = make([]float64, lpTaps)

	a.markOscDelta = uint32(math.Round(math.Pow(2, 32) * float64(markFreq) / float64(sampleRate)))
	a.spaceOscDelta = uint32(math.Round(math.Pow(2, 32) * float64(spaceFreq) / float64(sampleRate)))

	a.mAGC = dsp.AGC{FastAttack: 0.70, SlowDecay: 0.000090}
	a.sAGC = dsp.AGC{FastAttack: 0.70, SlowDecay: 0.000090}

	numSlicers := cfg.Profiles.NumSlicers
	if numSlicers < 1 {
		numSlicers = 1
	}
	a.spaceGain = make([]float64, numSlicers)
	if numSlicers == 1 {
		a.spaceGain[0] = 1.0
	} else {
		a.spaceGain[0] = minSpaceGain
		step := math.Pow(10.0, math.Log10(maxSpaceGain/minSpaceGain)/float64(numSlicers-1))
		for j := 1; j < numSlicers; j++ {
			a.spaceGain[j] = a.spaceGain[j-1] * step
		}
	}

	d := &DemodState{
		Config:        cfg,
		SampleRate:    sampleRate,
		Upsample:      1,
		Slicers:       make([]SlicerState, numSlicers),
		afsk:          a,
		quickAttack:   0.70,
		sluggishDecay: 0.000090,
		Sink:          sink,
	}
	stepPerSample := TicksPerPLLCycle * float64(baud) / float64(sampleRate)
	if baud == 521 {
		stepPerSample = TicksPerPLLCycle * 520.83 / float64(sampleRate)
	}
	d.PLL = PLLConfig{
		StepPerSample:    int32(math.Round(stepPerSample)),
		LockedInertia:    0.74,
		SearchingInertia: 0.50,
		DCD:              DefaultAFSKDCDConfig(),
	}
	return d
}

// ProcessAFSKSample runs one raw audio sample through the mark/space
// correlators, AGC or parallel slicers, and the PLL.
func (d *DemodState) ProcessAFSKSample(sam int, onBit func(slice int, raw bool, quality int), onDCD func(slice int, detected bool)) {
	a := d.afsk
	fsam := float64(sam) / 16384.0

	if a.usePrefilter {
		dsp.PushSample(fsam, a.preFilterBuf)
		fsam = dsp.Convolve(a.preFilterBuf, a.preFilter)
	}

	dsp.PushSample(fsam*fcos256(a.markOscPhase), a.markI)
	dsp.PushSample(fsam*fsin256(a.markOscPhase), a.markQ)
	a.markOscPhase += a.markOscDelta

	dsp.PushSample(fsam*fcos256(a.spaceOscPhase), a.spaceI)
	dsp.PushSample(fsam*fsin256(a.spaceOscPhase), a.spaceQ)
	a.spaceOscPhase += a.spaceOscDelta

	mI := dsp.Convolve(a.markI, a.lpFilter)
	mQ := dsp.Convolve(a.markQ, a.lpFilter)
	mAmp := math.Hypot(mI, mQ)

	sI := dsp.Convolve(a.spaceI, a.lpFilter)
	sQ := dsp.Convolve(a.spaceQ, a.lpFilter)
	sAmp := math.Hypot(sI, sQ)

	if mAmp >= d.alevelMarkPeak {
		d.alevelMarkPeak = mAmp*d.quickAttack + d.alevelMarkPeak*(1.0-d.quickAttack)
	} else {
		d.alevelMarkPeak = mAmp*d.sluggishDecay + d.alevelMarkPeak*(1.0-d.sluggishDecay)
	}
	if sAmp >= d.alevelSpacePeak {
		d.alevelSpacePeak = sAmp*d.quickAttack + d.alevelSpacePeak*(1.0-d.quickAttack)
	} else {
		d.alevelSpacePeak = sAmp*d.sluggishDecay + d.alevelSpacePeak*(1.0-d.sluggishDecay)
	}

	if len(d.Slicers) <= 1 {
		// The two tones often arrive with very different amplitudes
		// (mismatched pre-emphasis/de-emphasis), so normalize each to the
		// same range before comparing.
		mNorm := a.mAGC.Update(mAmp)
		sNorm := a.sAGC.Update(sAmp)
		demodOut := mNorm - sNorm

		d.nudgePLLAFSK(0, demodOut, 1.0, onBit, onDCD)
	} else {
		// Multiple slicing thresholds in parallel instead of AGC. The best
		// slicing point varies packet to packet but holds steady within
		// one, so each slicer feeds its own framer. The envelopes are still
		// tracked for the per-slice confidence scale.
		a.mAGC.Update(mAmp)
		a.sAGC.Update(sAmp)

		for slice := range d.Slicers {
			demodOut := mAmp - sAmp*a.spaceGain[slice]
			amp := 0.5 * (a.mAGC.Peak - a.mAGC.Valley + (a.sAGC.Peak-a.sAGC.Valley)*a.spaceGain[slice])
			if amp < 0.0000001 {
				amp = 1 // avoid divide by zero with no signal
			}
			d.nudgePLLAFSK(slice, demodOut, amp, onBit, onDCD)
		}
	}
}

// nudgePLLAFSK: the phase accumulator overflow samples a bit (scored
// 0..100 by amplitude-relative confidence), and a *bit value change*
// (not a zero crossing) nudges the PLL by a plain multiplicative inertia
// factor, unlike the baseband demodulator's crossing-time interpolation.
func (d *DemodState) nudgePLLAFSK(slice int, demodOut, amplitude float64, onBit func(slice int, raw bool, quality int), onDCD func(slice int, detected bool)) {
	s := &d.Slicers[slice]
	s.PrevDataClockPLL = s.DataClockPLL
	s.DataClockPLL = s.DataClockPLL + d.PLL.StepPerSample

	if s.DataClockPLL < 0 && s.PrevDataClockPLL > 0 {
		quality := int(math.Abs(demodOut) * 100.0 / amplitude)
		if quality > 100 {
			quality = 100
		}
		if onBit != nil {
			onBit(slice, demodOut > 0, quality)
		}
		d.PLL.DCD.EachSymbol(s, func(detected bool) {
			if onDCD != nil {
				onDCD(slice, detected)
			}
		})
	}

	demodBit := demodOut > 0
	if demodBit != s.PrevBit {
		d.PLL.DCD.SignalTransition(s, s.DataClockPLL)
		if s.DataDetect {
			s.DataClockPLL = int32(float64(s.DataClockPLL) * d.PLL.LockedInertia)
		} else {
			s.DataClockPLL = int32(float64(s.DataClockPLL) * d.PLL.SearchingInertia)
		}
	}
	s.PrevBit = demodBit
}

// Cosine/sine lookup table indexed by the top 8 bits of a 32-bit phase
// accumulator. Plenty of resolution for a local oscillator that only
// feeds a correlator.
var cos256Table = func() [256]float64 {
	var t [256]float64
	for j := 0; j < 256; j++ {
		t[j] = math.Cos(float64(j) * 2.0 * math.Pi / 256.0)
	}
	return t
}()

func fcos256(phase uint32) float64 {
	return cos256Table[(phase>>24)&0xff]
}

func fsin256(phase uint32) float64 {
	return cos256Table[((phase>>24)-64)&0xff]
}
