package hdlc

import (
	"sync"
	"time"

	"github.com/kb9xyz/tncmodem/internal/ax25"
)

// Deduper collapses copies of the same frame arriving from parallel
// slicers (or subchannels) of one radio channel. Identical content keyed
// by CRC and channel is held for a short window; when the window closes
// the copy that needed the least retry effort is the one reported. A
// centered slicer decoding cleanly beats an offset slicer that needed a
// bit flipped.
type Deduper struct {
	Window time.Duration
	Emit   func(*Decoded)

	mu      sync.Mutex
	pending map[dedupeKey]*Decoded
}

type dedupeKey struct {
	channel int
	crc     uint16
}

// NewDeduper builds a Deduper reporting through emit. A zero window
// degenerates to pass-through.
func NewDeduper(window time.Duration, emit func(*Decoded)) *Deduper {
	return &Deduper{
		Window:  window,
		Emit:    emit,
		pending: make(map[dedupeKey]*Decoded),
	}
}

// Submit offers one decoded frame. The first copy of a given content
// opens the hold window; later copies within the window replace the held
// one only if they used a lower retry level.
func (d *Deduper) Submit(decoded *Decoded) {
	if d.Window <= 0 {
		d.Emit(decoded)
		return
	}

	key := dedupeKey{channel: decoded.Channel, crc: ax25.FCS(decoded.Payload)}

	d.mu.Lock()
	held, ok := d.pending[key]
	if ok {
		if decoded.RetryUsed < held.RetryUsed {
			d.pending[key] = decoded
		}
		d.mu.Unlock()
		return
	}
	d.pending[key] = decoded
	d.mu.Unlock()

	time.AfterFunc(d.Window, func() {
		d.mu.Lock()
		best := d.pending[key]
		delete(d.pending, key)
		d.mu.Unlock()
		if best != nil {
			d.Emit(best)
		}
	})
}
