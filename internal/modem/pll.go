// Package modem implements the AFSK and scrambled-baseband demodulators,
// the shared digital PLL bit-clock recovery, and DCD scoring.
package modem

import "math/bits"

// TicksPerPLLCycle is the full range of the signed 32-bit phase
// accumulator.
const TicksPerPLLCycle = 256.0 * 256.0 * 256.0 * 256.0

// DCDConfig holds the hysteresis thresholds for the transition-timing
// DCD score.
type DCDConfig struct {
	ThreshOn  int
	ThreshOff int
	GoodWidth int32
}

// DefaultAFSKDCDConfig is tuned for 1200 bps AFSK.
func DefaultAFSKDCDConfig() DCDConfig {
	return DCDConfig{ThreshOn: 30, ThreshOff: 6, GoodWidth: 512}
}

// DefaultBasebandDCDConfig is tuned for 9600 baud.
func DefaultBasebandDCDConfig() DCDConfig {
	return DCDConfig{ThreshOn: 32, ThreshOff: 8, GoodWidth: 1024}
}

// SlicerState is the per-slicer PLL and DCD state,
// one per demodulator slicer within a channel/subchannel.
type SlicerState struct {
	DataClockPLL     int32
	PrevDataClockPLL int32
	PrevDemodOut     float64

	PLLNudgeTotal int64
	SymbolCount   int

	GoodFlag, BadFlag bool
	GoodHist, BadHist uint8
	Score             uint32
	DataDetect        bool
	PrevBit           bool // previous recovered bit value, for AFSK's transition detector

	// 9600-baud descrambler state.
	LFSR        uint32
	PrevDescram bool
}

// PLLConfig carries the inertia constants and step size a demodulator
// configures once at init time.
type PLLConfig struct {
	StepPerSample   int32
	LockedInertia   float64
	SearchingInertia float64
	DCD             DCDConfig
}

// SignalTransition records whether a zero-crossing landed inside the
// "good" window around the expected sampling instant.
func (c DCDConfig) SignalTransition(s *SlicerState, phase int32) {
	width := int64(c.GoodWidth) * 1024 * 1024
	if int64(phase) > -width && int64(phase) < width {
		s.GoodFlag = true
	} else {
		s.BadFlag = true
	}
}

// EachSymbol updates the running good/bad transition-timing score and
// flips DataDetect via hysteresis.
// onChange is called only when DataDetect actually flips.
func (c DCDConfig) EachSymbol(s *SlicerState, onChange func(detected bool)) {
	s.GoodHist <<= 1
	if s.GoodFlag {
		s.GoodHist |= 1
	}
	s.GoodFlag = false

	s.BadHist <<= 1
	if s.BadFlag {
		s.BadHist |= 1
	}
	s.BadFlag = false

	s.Score <<= 1
	good := bits.OnesCount8(s.GoodHist)
	bad := bits.OnesCount8(s.BadHist)
	if good-bad >= 2 {
		s.Score |= 1
	}

	score := bits.OnesCount32(s.Score)
	if score >= c.ThreshOn {
		if !s.DataDetect {
			s.DataDetect = true
			if onChange != nil {
				onChange(true)
			}
		}
	} else if score <= c.ThreshOff {
		if s.DataDetect {
			s.DataDetect = false
			if onChange != nil {
				onChange(false)
			}
		}
	}
}

// Descramble undoes the self-synchronizing G3RUH scrambler one bit at a
// time: out = in XOR state[16] XOR state[11]; state = (state<<1)|in.
func Descramble(in bool, state *uint32) bool {
	var inBit uint32
	if in {
		inBit = 1
	}
	out := (inBit ^ (*state >> 16) ^ (*state >> 11)) & 1
	*state = (*state << 1) | inBit
	return out != 0
}
