package hdlc

import (
	"github.com/kb9xyz/tncmodem/internal/ax25"
)

// Sender serializes frames for transmission: opening/closing flags, the
// frame body with zero-bit insertion after five consecutive 1s, the FCS,
// and NRZI encoding of the whole lot. It is the exact inverse of the
// Framer/tryDecode pipeline. Emitted levels go to PutLevel one at a time;
// the caller turns them into audio.
type Sender struct {
	// PutLevel receives each NRZI line level (true = no transition from
	// the previous level).
	PutLevel func(level bool)

	level bool
	stuff int
	nbits int
}

// sendBit NRZI-encodes one data bit: 0 toggles the line, 1 holds it.
func (s *Sender) sendBit(b bool) {
	if !b {
		s.level = !s.level
	}
	s.PutLevel(s.level)
	s.nbits++
}

// SendFlags emits n flag octets with no bit stuffing, resetting the
// stuffing counter. Used for the txdelay preamble and txtail postamble as
// well as frame delimiters.
func (s *Sender) SendFlags(n int) {
	for i := 0; i < n; i++ {
		x := byte(0x7e)
		for j := 0; j < 8; j++ {
			s.sendBit(x&1 != 0)
			x >>= 1
		}
	}
	s.stuff = 0
}

// sendDataOctet emits one octet LSB-first with zero-bit insertion.
func (s *Sender) sendDataOctet(x byte) {
	for i := 0; i < 8; i++ {
		b := x&1 != 0
		s.sendBit(b)
		if b {
			s.stuff++
			if s.stuff == 5 {
				s.sendBit(false)
				s.stuff = 0
			}
		} else {
			s.stuff = 0
		}
		x >>= 1
	}
}

// SendFrame emits one flag, the payload octets plus computed FCS with bit
// stuffing, and a closing flag. Returns the number of line levels emitted.
func (s *Sender) SendFrame(payload []byte) int {
	start := s.nbits

	s.SendFlags(1)
	for _, b := range ax25.AppendFCS(append([]byte(nil), payload...)) {
		s.sendDataOctet(b)
	}
	s.SendFlags(1)

	return s.nbits - start
}
