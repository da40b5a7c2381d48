package modem

import (
	"github.com/kb9xyz/tncmodem/internal/hdlc"
	"github.com/kb9xyz/tncmodem/internal/tncconfig"
)

// ToneGen renders the HDLC serializer's NRZI line levels into audio
// samples: a continuous-phase AFSK tone pair, or the half-baud-reference
// square-ish wave used for 9600 baseband, scrambled or not. One instance
// per transmit channel.
type ToneGen struct {
	modem tncconfig.ModemType

	markDelta  uint32 // phase advance per sample while sending mark
	spaceDelta uint32
	phase      uint32

	ticksPerSample int64
	ticksPerBit    int64
	bitLenAcc      int64

	amp float64

	lfsr    uint32 // transmit scrambler shift register (9600 only)
	prevDat bool

	out []int16
}

// NewToneGen builds a generator for one channel. amp is the signal
// amplitude on a 0..100 scale, where 100 uses the full 16-bit range.
func NewToneGen(cfg tncconfig.Channel, sampleRate, amp int) *ToneGen {
	g := &ToneGen{
		modem:          cfg.Modem,
		ticksPerSample: int64(TicksPerPLLCycle/float64(sampleRate) + 0.5),
		ticksPerBit:    int64(TicksPerPLLCycle/float64(cfg.Baud) + 0.5),
		amp:            float64(32767*amp) / 100.0,
	}
	switch cfg.Modem {
	case tncconfig.ModemAFSK:
		g.markDelta = uint32(float64(cfg.MarkFreq)*TicksPerPLLCycle/float64(sampleRate) + 0.5)
		g.spaceDelta = uint32(float64(cfg.SpaceFreq)*TicksPerPLLCycle/float64(sampleRate) + 0.5)
	default:
		// Baseband/scrambled: a half-baud-rate reference keeps transitions
		// smooth; steady runs snap the phase to +-90 degrees.
		g.markDelta = uint32(float64(cfg.Baud)*0.5*TicksPerPLLCycle/float64(sampleRate) + 0.5)
		g.spaceDelta = g.markDelta
	}
	return g
}

// PutLevel renders one bit time of audio for the given NRZI line level
// into the internal buffer. For the scrambled modem the level is run
// through the G3RUH transmit scrambler first; the receiver's
// self-synchronizing descrambler undoes it with no shared state.
func (g *ToneGen) PutLevel(dat bool) {
	if g.modem == tncconfig.ModemScrambled {
		var in uint32
		if dat {
			in = 1
		}
		x := (in ^ (g.lfsr >> 16) ^ (g.lfsr >> 11)) & 1
		g.lfsr = (g.lfsr << 1) | x
		dat = x != 0
	}

	for {
		switch g.modem {
		case tncconfig.ModemAFSK:
			if dat {
				g.phase += g.markDelta
			} else {
				g.phase += g.spaceDelta
			}
		default:
			if dat != g.prevDat {
				g.phase += g.markDelta
			} else if g.phase&0x80000000 != 0 {
				g.phase = 0xc0000000 // 270 degrees
			} else {
				g.phase = 0x40000000 // 90 degrees
			}
		}
		g.out = append(g.out, int16(g.amp*fsin256(g.phase)))

		g.bitLenAcc += g.ticksPerSample
		if g.bitLenAcc >= g.ticksPerBit {
			break
		}
	}
	g.bitLenAcc -= g.ticksPerBit
	g.prevDat = dat
}

// Samples returns everything rendered since the last call and resets the
// buffer.
func (g *ToneGen) Samples() []int16 {
	s := g.out
	g.out = nil
	return s
}

// NewModulator wires a ToneGen behind an HDLC serializer, producing the
// frame-to-audio function the transmit state machine consumes: preFlags
// and postFlags are the txdelay/txtail filler counts.
func NewModulator(cfg tncconfig.Channel, sampleRate, amp int) func(frame []byte, preFlags, postFlags int) []int16 {
	g := NewToneGen(cfg, sampleRate, amp)
	s := &hdlc.Sender{PutLevel: g.PutLevel}
	return func(frame []byte, preFlags, postFlags int) []int16 {
		s.SendFlags(preFlags)
		s.SendFrame(frame)
		s.SendFlags(postFlags)
		return g.Samples()
	}
}
