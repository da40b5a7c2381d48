// Package audio implements the sample pump: it turns a raw PCM byte
// stream (soundcard, UDP, or stdin - anything readable) into a channel
// of per-audio-channel signed 16-bit samples that the demod pipeline
// consumes, fanning interleaved stereo frames out to alternating radio
// channels.
package audio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kb9xyz/tncmodem/internal/dwlog"
)

// BitsPerSample is the PCM sample width this package understands.
type BitsPerSample int

const (
	Bits8  BitsPerSample = 8
	Bits16 BitsPerSample = 16
)

// Format describes one PCM stream's layout.
type Format struct {
	SampleRate  int
	NumChannels int
	BitsPer     BitsPerSample
}

// BytesPerFrame is the number of bytes consumed from the stream per
// sample period across all channels.
func (f Format) BytesPerFrame() int {
	return f.NumChannels * int(f.BitsPer) / 8
}

// Sample is one channel's audio sample at one instant, scaled to the
// demod pipeline's signed 16-bit range.
type Sample struct {
	Channel int
	Value   int16
}

// ErrUnsupportedBitDepth reports a Format whose BitsPer isn't 8 or 16.
var ErrUnsupportedBitDepth = errors.New("audio: bits per sample must be 8 or 16")

// Pump reads interleaved PCM frames from a reader and decodes each
// channel's sample into the stream returned by Run.
type Pump struct {
	Format    Format
	FirstChan int // channel number assigned to this device's first (left) channel

	err error // sticky; set only by Run's goroutine before closing its output
}

// NewPump validates format before returning a Pump, so a bad bit depth
// fails at construction rather than silently starving Run's output.
func NewPump(format Format, firstChan int) (*Pump, error) {
	if format.BitsPer != Bits8 && format.BitsPer != Bits16 {
		return nil, fmt.Errorf("%w: got %d", ErrUnsupportedBitDepth, format.BitsPer)
	}
	if format.NumChannels < 1 {
		return nil, fmt.Errorf("audio: num channels must be >= 1, got %d", format.NumChannels)
	}
	return &Pump{Format: format, FirstChan: firstChan}, nil
}

// Run starts one goroutine that reads r until EOF, ctx is cancelled, or a
// read error occurs, emitting one Sample per (frame, channel) pair in
// frame order. The returned channel is closed when Run's goroutine exits.
func (p *Pump) Run(ctx context.Context, r io.Reader) <-chan Sample {
	out := make(chan Sample)
	go func() {
		defer close(out)
		br := bufio.NewReader(r)
		frame := make([]byte, p.Format.BytesPerFrame())
		bytesPerSample := int(p.Format.BitsPer) / 8

		for {
			if _, err := io.ReadFull(br, frame); err != nil {
				// A clean EOF on a frame boundary is orderly termination;
				// anything else (including a torn final frame) is an I/O
				// failure the caller can inspect after the channel closes.
				if err != io.EOF {
					p.err = &dwlog.IoError{Op: "audio read", Err: err}
				}
				return
			}
			for c := 0; c < p.Format.NumChannels; c++ {
				raw := frame[c*bytesPerSample : (c+1)*bytesPerSample]
				v, err := decodeSample(p.Format.BitsPer, raw)
				if err != nil {
					return
				}
				select {
				case out <- Sample{Channel: p.FirstChan + c, Value: v}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Err reports why Run's output closed: nil after a clean EOF or
// cancellation, an IoError after a failed or short read. Valid only once
// the sample channel has closed.
func (p *Pump) Err() error {
	return p.err
}

// decodeSample converts one channel's raw PCM bytes into a signed 16-bit
// sample. 8-bit input is unsigned (0..255) and scaled to -32768..32512 by
// (x-128)*256; 16-bit input is little-endian signed, assembled low byte
// first.
func decodeSample(bits BitsPerSample, raw []byte) (int16, error) {
	switch bits {
	case Bits8:
		return int16(int(raw[0])-128) * 256, nil
	case Bits16:
		return int16(uint16(raw[0]) | uint16(raw[1])<<8), nil
	default:
		return 0, fmt.Errorf("%w: got %d", ErrUnsupportedBitDepth, bits)
	}
}
