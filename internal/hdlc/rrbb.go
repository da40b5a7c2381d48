// Package hdlc extracts AX.25 frames from a demodulated bit stream,
// validates them against the FCS, and runs the bit-flip retry engine when
// the checksum fails.
package hdlc

// RRBB ("raw receive bit buffer") holds one candidate frame's worth of raw,
// pre-NRZI, pre-descramble bits plus the descrambler/NRZI state the frame
// started with, so the retry engine can re-run the whole bit-stuffing and
// NRZI pipeline from scratch for each bit-flip candidate.
type RRBB struct {
	Channel    int
	Subchannel int
	Slice      int

	IsScrambled bool
	LFSR        uint32
	PrevDescram bool

	bits []bool

	SpeedError float64
	AudioLevel int
}

// NewRRBB allocates an empty buffer seeded with the descrambler state in
// effect when the frame started.
func NewRRBB(channel, subchannel, slice int, isScrambled bool, lfsr uint32, prevDescram bool) *RRBB {
	return &RRBB{
		Channel:     channel,
		Subchannel:  subchannel,
		Slice:       slice,
		IsScrambled: isScrambled,
		LFSR:        lfsr,
		PrevDescram: prevDescram,
		bits:        make([]bool, 0, 512),
	}
}

// Clear resets the buffer in place for the next frame.
func (b *RRBB) Clear(isScrambled bool, lfsr uint32, prevDescram bool) {
	b.bits = b.bits[:0]
	b.IsScrambled = isScrambled
	b.LFSR = lfsr
	b.PrevDescram = prevDescram
}

// Append adds one raw (pre-NRZI) bit.
func (b *RRBB) Append(raw bool) {
	b.bits = append(b.bits, raw)
}

// ChopLastByte removes the trailing 8 bits belonging to the flag pattern
// just matched.
func (b *RRBB) ChopLastByte() {
	if len(b.bits) >= 8 {
		b.bits = b.bits[:len(b.bits)-8]
	} else {
		b.bits = b.bits[:0]
	}
}

// Len is the number of raw bits currently buffered.
func (b *RRBB) Len() int { return len(b.bits) }

// Bit returns the raw bit at index i.
func (b *RRBB) Bit(i int) bool { return b.bits[i] }
