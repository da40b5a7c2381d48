package modem

import (
	"math"

	"github.com/kb9xyz/tncmodem/internal/dsp"
	"github.com/kb9xyz/tncmodem/internal/tncconfig"
)

// basebandState holds the polyphase low-pass filter used to both decimate
// (AGC/slicing runs at the original rate) and upsample (the PLL runs at
// upsample x the original rate to cut jitter).
type basebandState struct {
	filterTaps int
	window     dsp.WindowType
	audioIn    []float64
	polyphase  [][]float64 // one slice per upsample branch
	slicePoint []float64   // per-subchannel slicing offset, only used when NumSlicers > 1
}

// NewBaseband builds a scrambled or unscrambled baseband ("9600 baud")
// demodulator. cfg.Modem selects whether the descrambler runs; upsample
// (1..4) trades CPU for PLL jitter.
func NewBaseband(cfg tncconfig.Channel, sampleRate, upsample, baud int, sink BitSink) *DemodState {
	if upsample < 1 {
		upsample = 1
	}
	if upsample > 4 {
		upsample = 4
	}

	const lpFilterWidthSym = 1.0
	const lpfBaud = 1.00

	filterTaps := int(lpFilterWidthSym*float64(sampleRate)/float64(baud) + 0.5)

	bb := &basebandState{
		filterTaps: filterTaps,
		window:     dsp.WindowCosine,
		audioIn:    make([]float64, filterTaps),
		polyphase:  make([][]float64, upsample),
	}

	fullKernel := make([]float64, filterTaps*upsample)
	fc := float64(baud) * lpfBaud / float64(sampleRate*upsample)
	dsp.GenLowpass(fc, fullKernel, bb.window)

	for b := 0; b < upsample; b++ {
		bb.polyphase[b] = make([]float64, filterTaps)
	}
	k := 0
	for i := 0; i < filterTaps; i++ {
		for b := 0; b < upsample; b++ {
			bb.polyphase[b][i] = fullKernel[k]
			k++
		}
	}

	numSlicers := cfg.Profiles.NumSlicers
	if numSlicers < 1 {
		numSlicers = 1
	}
	bb.slicePoint = make([]float64, numSlicers)
	for j := 0; j < numSlicers; j++ {
		bb.slicePoint[j] = 0.02 * (float64(j) - 0.5*float64(numSlicers-1))
	}

	d := &DemodState{
		Config:         cfg,
		SampleRate:     sampleRate,
		Upsample:       upsample,
		Slicers:        make([]SlicerState, numSlicers),
		bb:             bb,
		quickAttack:    0.080,
		sluggishDecay:  0.00012,
		agc:            dsp.AGC{FastAttack: 0.080, SlowDecay: 0.00012},
		Sink:           sink,
	}
	d.PLL = PLLConfig{
		StepPerSample:    int32(math.Round(TicksPerPLLCycle * float64(baud) / float64(sampleRate*upsample))),
		LockedInertia:    0.89,
		SearchingInertia: 0.67,
		DCD:              DefaultBasebandDCDConfig(),
	}
	return d
}

// ProcessSample filters, descrambles, and clocks one raw audio sample
// through the baseband demodulator, calling onBit once per recovered data
// bit and onDCD whenever carrier detect flips.
func (d *DemodState) ProcessSample(sam int, onBit func(slice int, raw bool), onDCD func(slice int, detected bool)) {
	bb := d.bb
	fsam := float64(sam) / 16384.0

	dsp.PushSample(fsam, bb.audioIn)

	for branch := 0; branch < d.Upsample; branch++ {
		filtered := dsp.Convolve(bb.audioIn, bb.polyphase[branch])
		d.processFilteredSample(filtered, onBit, onDCD)
	}
}

func (d *DemodState) processFilteredSample(fsam float64, onBit func(slice int, raw bool), onDCD func(slice int, detected bool)) {
	if fsam >= d.alevelMarkPeak {
		d.alevelMarkPeak = fsam*d.quickAttack + d.alevelMarkPeak*(1.0-d.quickAttack)
	} else {
		d.alevelMarkPeak = fsam*d.sluggishDecay + d.alevelMarkPeak*(1.0-d.sluggishDecay)
	}
	if fsam <= d.alevelSpacePeak {
		d.alevelSpacePeak = fsam*d.quickAttack + d.alevelSpacePeak*(1.0-d.quickAttack)
	} else {
		d.alevelSpacePeak = fsam*d.sluggishDecay + d.alevelSpacePeak*(1.0-d.sluggishDecay)
	}

	demodOut := d.agc.Update(fsam)

	if len(d.Slicers) <= 1 {
		d.nudgePLL(0, demodOut, onBit, onDCD)
	} else {
		for slice := range d.Slicers {
			d.nudgePLL(slice, demodOut-d.bb.slicePoint[slice], onBit, onDCD)
		}
	}
}

// nudgePLL is the scrambled-baseband PLL update.
func (d *DemodState) nudgePLL(slice int, demodOut float64, onBit func(slice int, raw bool), onDCD func(slice int, detected bool)) {
	s := &d.Slicers[slice]
	s.PrevDataClockPLL = s.DataClockPLL
	s.DataClockPLL = s.DataClockPLL + d.PLL.StepPerSample

	if s.PrevDataClockPLL > 1000000000 && s.DataClockPLL < -1000000000 {
		if onBit != nil {
			onBit(slice, demodOut > 0)
		}
		s.SymbolCount++
		d.PLL.DCD.EachSymbol(s, func(detected bool) {
			if onDCD != nil {
				onDCD(slice, detected)
			}
		})
	}

	if (s.PrevDemodOut < 0 && demodOut > 0) || (s.PrevDemodOut > 0 && demodOut < 0) {
		d.PLL.DCD.SignalTransition(s, s.DataClockPLL)

		target := float64(d.PLL.StepPerSample) * demodOut / (demodOut - s.PrevDemodOut)

		before := s.DataClockPLL
		if s.DataDetect {
			s.DataClockPLL = int32(float64(s.DataClockPLL)*d.PLL.LockedInertia + target*(1.0-d.PLL.LockedInertia))
		} else {
			s.DataClockPLL = int32(float64(s.DataClockPLL)*d.PLL.SearchingInertia + target*(1.0-d.PLL.SearchingInertia))
		}
		s.PLLNudgeTotal += int64(s.DataClockPLL) - int64(before)
	}

	s.PrevDemodOut = demodOut
}
