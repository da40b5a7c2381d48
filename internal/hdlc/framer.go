package hdlc

// Frame length bounds, including the 2-octet FCS, per the AX.25 link layer
// and Dire Wolf's ax25_pad.h: two 7-octet addresses plus a control octet is
// the shortest legal frame; ten addresses (destination, source, up to 8
// digipeaters) plus control/PID and a generous information field is the
// longest.
const (
	MinFrameLen = 2*7 + 1 + 2
	MaxFrameLen = 10*7 + 2 + 3 + 2048
)

// Decoded is one frame that passed the FCS (and, for bit-flip recoveries,
// sanity) check, ready for AX.25 address parsing.
type Decoded struct {
	Channel, Subchannel, Slice int
	Payload                    []byte // frame content, FCS already stripped
	RetryUsed                  RetryLevel
	SpeedError                 float64
	AudioLevel                 int
}

// Framer is the live HDLC bit-stuffing/flag-detection state machine that
// turns a stream of demodulated bits into candidate RRBB blocks.
type Framer struct {
	channel, subchannel, slice int
	isScrambled                bool

	prevRaw     bool
	lfsr        uint32
	prevDescram bool

	patDet byte
	olen   int

	rrbb *RRBB

	pllNudgeTotal int64
	symbolCount   int

	// Sink receives each candidate block once a closing flag is found with
	// enough accumulated octets; it owns retry/sanity/FCS checking.
	Sink func(*RRBB, SpeedInfo)
}

type SpeedInfo struct {
	PLLNudgeTotal int64
	SymbolCount   int
}

// NewFramer starts a fresh decoder for one channel/subchannel/slice.
func NewFramer(channel, subchannel, slice int, isScrambled bool, sink func(*RRBB, SpeedInfo)) *Framer {
	return &Framer{
		channel:     channel,
		subchannel:  subchannel,
		slice:       slice,
		isScrambled: isScrambled,
		rrbb:        NewRRBB(channel, subchannel, slice, isScrambled, 0, false),
		Sink:        sink,
	}
}

// ReceiveBit feeds one demodulated raw bit through NRZI/descrambling, the
// flag/abort/stuff-bit pattern detector, and the octet accumulator.
func (f *Framer) ReceiveBit(raw bool) {
	var dbit bool
	if f.isScrambled {
		descram := descramble(raw, &f.lfsr)
		dbit = descram == f.prevDescram
		f.prevDescram = descram
		f.prevRaw = raw
	} else {
		dbit = raw == f.prevRaw
		f.prevRaw = raw
	}

	f.patDet >>= 1
	if dbit {
		f.patDet |= 0x80
	}

	f.rrbb.Append(raw)

	switch {
	case f.patDet == 0x7e: // flag
		f.rrbb.ChopLastByte()
		f.onFlag()

	case f.patDet == 0xfe: // seven ones: abort / loss of signal
		f.olen = -1
		f.rrbb.Clear(f.isScrambled, f.lfsr, f.prevDescram)

	case f.patDet&0xfc == 0x7c: // five ones then a zero: stuffed bit, discard
		// nothing to accumulate

	default:
		f.olen++
	}
}

func (f *Framer) onFlag() {
	if f.rrbb.Len() >= MinFrameLen*8 {
		info := SpeedInfo{PLLNudgeTotal: f.pllNudgeTotal, SymbolCount: f.symbolCount}
		done := f.rrbb
		if f.Sink != nil {
			f.Sink(done, info)
		}
		f.rrbb = NewRRBB(f.channel, f.subchannel, f.slice, f.isScrambled, f.lfsr, f.prevDescram)
	} else {
		f.pllNudgeTotal = 0
		f.symbolCount = -1
		f.rrbb.Clear(f.isScrambled, f.lfsr, f.prevDescram)
	}

	f.olen = 0
	f.rrbb.Append(f.prevRaw) // last bit of flag, needed to derive the first data bit
}

// descramble undoes the self-synchronizing G3RUH scrambler. Duplicated
// from internal/modem rather than imported, since the retry engine needs
// to run it against RRBB-buffered raw bits independently of any live
// demodulator instance.
func descramble(in bool, state *uint32) bool {
	var inBit uint32
	if in {
		inBit = 1
	}
	out := (inBit ^ (*state >> 16) ^ (*state >> 11)) & 1
	*state = (*state << 1) | inBit
	return out != 0
}
