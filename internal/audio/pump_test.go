package audio

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kb9xyz/tncmodem/internal/dwlog"
)

func collect(t *testing.T, ch <-chan Sample) []Sample {
	t.Helper()
	var got []Sample
	for {
		select {
		case s, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, s)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for samples")
			return nil
		}
	}
}

func TestPumpDecodes8BitMono(t *testing.T) {
	p, err := NewPump(Format{NumChannels: 1, BitsPer: Bits8}, 0)
	require.NoError(t, err)

	r := bytes.NewReader([]byte{128, 0, 255})
	ch := p.Run(context.Background(), r)
	got := collect(t, ch)

	require.Len(t, got, 3)
	assert.Equal(t, Sample{Channel: 0, Value: 0}, got[0])
	assert.Equal(t, Sample{Channel: 0, Value: int16(-128) * 256}, got[1])
	assert.Equal(t, Sample{Channel: 0, Value: int16(127) * 256}, got[2])
}

func TestPumpDecodes16BitLittleEndian(t *testing.T) {
	p, err := NewPump(Format{NumChannels: 1, BitsPer: Bits16}, 0)
	require.NoError(t, err)

	r := bytes.NewReader([]byte{0x34, 0x12}) // 0x1234 little-endian
	ch := p.Run(context.Background(), r)
	got := collect(t, ch)

	require.Len(t, got, 1)
	assert.Equal(t, int16(0x1234), got[0].Value)
}

func TestPumpFansOutStereoInFrameOrder(t *testing.T) {
	p, err := NewPump(Format{NumChannels: 2, BitsPer: Bits8}, 5)
	require.NoError(t, err)

	// Frame 1: left=128 (0), right=255 (127*256). Frame 2: left=0, right=128.
	r := bytes.NewReader([]byte{128, 255, 0, 128})
	ch := p.Run(context.Background(), r)
	got := collect(t, ch)

	require.Len(t, got, 4)
	assert.Equal(t, 5, got[0].Channel)
	assert.Equal(t, 6, got[1].Channel)
	assert.Equal(t, 5, got[2].Channel)
	assert.Equal(t, 6, got[3].Channel)
	assert.Equal(t, int16(-128)*256, got[0].Value)
}

func TestPumpStopsOnPartialFinalFrame(t *testing.T) {
	p, err := NewPump(Format{NumChannels: 1, BitsPer: Bits16}, 0)
	require.NoError(t, err)

	r := bytes.NewReader([]byte{0x01}) // one stray byte, not a full frame
	ch := p.Run(context.Background(), r)
	got := collect(t, ch)
	assert.Empty(t, got)

	var ioErr *dwlog.IoError
	assert.ErrorAs(t, p.Err(), &ioErr, "a torn final frame is an I/O failure, not EOF")
}

func TestPumpCleanEOFLeavesNoError(t *testing.T) {
	p, err := NewPump(Format{NumChannels: 1, BitsPer: Bits8}, 0)
	require.NoError(t, err)

	ch := p.Run(context.Background(), bytes.NewReader([]byte{128, 129}))
	collect(t, ch)
	assert.NoError(t, p.Err())
}

func TestPumpStopsOnContextCancel(t *testing.T) {
	p, err := NewPump(Format{NumChannels: 1, BitsPer: Bits8}, 0)
	require.NoError(t, err)

	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := p.Run(ctx, pr)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}

func TestNewPumpRejectsUnsupportedBitDepth(t *testing.T) {
	_, err := NewPump(Format{NumChannels: 1, BitsPer: 24}, 0)
	assert.ErrorIs(t, err, ErrUnsupportedBitDepth)
}

func TestNewPumpRejectsZeroChannels(t *testing.T) {
	_, err := NewPump(Format{NumChannels: 0, BitsPer: Bits8}, 0)
	assert.Error(t, err)
}

func TestBytesPerFrame(t *testing.T) {
	assert.Equal(t, 2, Format{NumChannels: 2, BitsPer: Bits8}.BytesPerFrame())
	assert.Equal(t, 4, Format{NumChannels: 2, BitsPer: Bits16}.BytesPerFrame())
}
