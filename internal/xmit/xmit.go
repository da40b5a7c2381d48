// Package xmit implements the transmit timing state machine:
// PTT-on -> TX-delay -> modulate -> TX-tail -> PTT-off, gated by a CSMA
// persistence/slottime clear-channel check. One context-cancellable
// Transmitter runs per channel.
package xmit

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kb9xyz/tncmodem/internal/ptt"
)

// Config is one channel's transmit-timing configuration. Slottime,
// txdelay, and txtail are all in traditional TNC 10-millisecond units.
type Config struct {
	SlotTime   int // CSMA slot, 10ms units
	Persist    int // 0..255 persistence probability numerator
	TxDelay    int // head time, 10ms units
	TxTail     int // tail time, 10ms units
	FullDuplex bool
}

// waitTimeout and waitCheckEvery bound how long WaitForClearChannel will
// poll DCD/queue state before giving up.
const (
	waitTimeout    = 60 * time.Second
	waitCheckEvery = 10 * time.Millisecond
)

// ChannelProbe supplies the live state WaitForClearChannel needs: whether
// the channel currently has a carrier, and whether a higher-priority frame
// is waiting (which short-circuits the random backoff).
type ChannelProbe struct {
	DataCarrierDetected func() bool
	HighPriorityPending  func() bool
}

// WaitForClearChannel blocks until the channel is clear and the
// persistence/slottime algorithm decides to transmit, or ctx is
// cancelled/times out.
func WaitForClearChannel(ctx context.Context, cfg Config, probe ChannelProbe) bool {
	if cfg.FullDuplex {
		return true
	}

	deadline := time.Now().Add(waitTimeout)

	for probe.DataCarrierDetected() {
		if !sleepOrDone(ctx, waitCheckEvery) || time.Now().After(deadline) {
			return false
		}
	}

	slot := time.Duration(cfg.SlotTime) * 10 * time.Millisecond
	for !probe.HighPriorityPending() {
		if !sleepOrDone(ctx, slot) {
			return false
		}
		if probe.DataCarrierDetected() {
			return WaitForClearChannel(ctx, cfg, probe)
		}
		if rollPersistence(cfg.Persist) {
			break
		}
		if time.Now().After(deadline) {
			return false
		}
	}
	return true
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// rollPersistence draws a uniform 0..255 value and reports whether it's
// within the configured persist threshold, matching "r <= persist".
func rollPersistence(persist int) bool {
	n, err := rand.Int(rand.Reader, big.NewInt(256))
	if err != nil {
		return false
	}
	return int(n.Int64()) <= persist
}

// Modulator renders one frame into audio samples for one channel: the
// preFlags/postFlags filler, the bit-stuffed NRZI (and, for 9600,
// scrambled) frame body, and the FCS. Supplied by the demodulator's
// transmit-side counterpart (modem.NewModulator), kept out of this
// package since xmit only owns timing.
type Modulator func(frame []byte, preFlags, postFlags int) []int16

// AudioSink accepts rendered samples for playback, e.g. an audio.Writer.
type AudioSink func(samples []int16) error

// Transmitter drives one channel's PTT-on -> txdelay -> modulate ->
// txtail -> PTT-off sequence.
type Transmitter struct {
	Channel    int
	Baud       int
	SampleRate int
	Timing     Config
	PTT        *ptt.Controller
	Modulate   Modulator
	Sink       AudioSink
	Queue      *Queue
}

// Probe builds a ChannelProbe wired to this Transmitter's Queue, so
// WaitForClearChannel's short-circuit for a waiting high-priority frame
// reflects the Transmitter's own outbound queue. dcd reports live carrier
// detect state for the channel.
func (t *Transmitter) Probe(dcd func() bool) ChannelProbe {
	return ChannelProbe{
		DataCarrierDetected: dcd,
		HighPriorityPending: func() bool { return t.Queue.Peek(PriorityHigh) != nil },
	}
}

// Run drains the Transmitter's Queue forever, sending each frame (high
// priority first) once the channel clears, until ctx is cancelled.
func (t *Transmitter) Run(ctx context.Context, cfg Config, dcd func() bool) {
	probe := t.Probe(dcd)
	for {
		t.Queue.Wait(ctx)
		if ctx.Err() != nil {
			return
		}

		frame := t.Queue.Remove(PriorityHigh)
		if frame == nil {
			frame = t.Queue.Remove(PriorityLow)
		}
		if frame == nil {
			continue
		}

		if !WaitForClearChannel(ctx, cfg, probe) {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		if err := t.SendFrame(ctx, frame); err != nil {
			log.Warn("xmit: send failed", "channel", t.Channel, "err", err)
		}
	}
}

// flagOctetBits is the width of one HDLC flag octet, used to convert a
// millisecond duration into a whole number of filler flags.
const flagOctetBits = 8

// SendFrame keys PTT, waits txdelay worth of flags, modulates frame,
// waits txtail worth of flags, then releases PTT.
func (t *Transmitter) SendFrame(ctx context.Context, frame []byte) error {
	if err := t.PTT.Assert(t.Channel, ptt.OutputPTT); err != nil {
		log.Warn("xmit: PTT assert failed", "channel", t.Channel, "err", err)
	}
	defer func() {
		if err := t.PTT.Release(t.Channel, ptt.OutputPTT); err != nil {
			log.Warn("xmit: PTT release failed", "channel", t.Channel, "err", err)
		}
	}()

	preFlags := t.flagOctetsFor(t.Timing.TxDelay * 10)
	postFlags := t.flagOctetsFor(t.Timing.TxTail * 10)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	samples := t.Modulate(frame, preFlags, postFlags)
	return t.Sink(samples)
}

// flagOctetsFor converts a millisecond duration to a whole number of flag
// octets at this Transmitter's baud rate.
func (t *Transmitter) flagOctetsFor(ms int) int {
	bits := (ms * t.Baud) / 1000
	return bits / flagOctetBits
}
