package modem

import (
	"github.com/kb9xyz/tncmodem/internal/dsp"
	"github.com/kb9xyz/tncmodem/internal/tncconfig"
)

// BitSink receives one recovered data bit (after NRZI/descrambling is
// applied by the HDLC layer) together with the raw (pre-NRZI) bit the
// framer needs for bit-stuff detection.
type BitSink func(raw bool)

// AudioLevel is a 0-100-ish scaled read on how strong mark/space (or
// peak/valley) amplitudes were, purely for the "heard" display and the
// CSV receive log.
type AudioLevel struct {
	Mark  int
	Space int
}

// DemodState is the per-channel/subchannel demodulator instance. A
// channel can run several of these concurrently for multi-frequency or
// multi-letter profiles.
type DemodState struct {
	Config tncconfig.Channel

	SampleRate int
	Upsample   int

	Slicers []SlicerState
	PLL     PLLConfig

	// AFSK fields.
	afsk *afskState

	// Baseband/scrambled fields.
	bb *basebandState

	alevelMarkPeak, alevelSpacePeak float64
	quickAttack, sluggishDecay      float64

	agc dsp.AGC

	Sink BitSink
}

// AudioLevel reports the current peak readings, roughly 0..100: a DC
// input of +-16384 maps to level 100.
func (d *DemodState) AudioLevel() AudioLevel {
	return AudioLevel{
		Mark:  int(d.alevelMarkPeak * 100),
		Space: int(-d.alevelSpacePeak * 100),
	}
}
