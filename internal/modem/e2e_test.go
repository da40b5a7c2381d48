package modem

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kb9xyz/tncmodem/internal/audio"
	"github.com/kb9xyz/tncmodem/internal/ax25"
	"github.com/kb9xyz/tncmodem/internal/hdlc"
	"github.com/kb9xyz/tncmodem/internal/tncconfig"
)

func testPayload() []byte {
	f := ax25.Frame{
		Addresses: []ax25.Address{{Call: "APDW15"}, {Call: "WB2OSZ", SSID: 9}},
		Control:   0x03,
		PID:       0xf0,
		Info:      []byte(">test"),
	}
	return f.Pack()
}

// serializeLevels runs the payload through the HDLC serializer and returns
// the NRZI line levels, preamble and postamble flags included.
func serializeLevels(payload []byte, preFlags, postFlags int) []bool {
	var levels []bool
	s := &hdlc.Sender{PutLevel: func(level bool) { levels = append(levels, level) }}
	s.SendFlags(preFlags)
	s.SendFrame(payload)
	s.SendFlags(postFlags)
	return levels
}

// decodeAudio pushes samples through an AFSK demodulator wired to a framer
// and collects every successfully decoded frame.
func decodeAudio(t *testing.T, samples []int16, fixBits hdlc.RetryLevel) []*hdlc.Decoded {
	t.Helper()

	var decoded []*hdlc.Decoded
	framer := hdlc.NewFramer(0, 0, 0, false, func(block *hdlc.RRBB, _ hdlc.SpeedInfo) {
		if d, err := hdlc.Decode(block, fixBits, tncconfig.SanityAPRS, false); err == nil {
			decoded = append(decoded, d)
		}
	})

	cfg := tncconfig.Channel{Modem: tncconfig.ModemAFSK, Baud: 1200, MarkFreq: 1200, SpaceFreq: 2200}
	d := NewAFSK(cfg, 44100, 1200, 1200, 2200, nil)
	for _, sam := range samples {
		d.ProcessAFSKSample(int(sam), func(slice int, raw bool, quality int) {
			framer.ReceiveBit(raw)
		}, nil)
	}
	return decoded
}

// One second of dead silence must produce no frames and no errors.
func TestSilenceProducesNoFrames(t *testing.T) {
	silence := make([]int16, 44100)
	decoded := decodeAudio(t, silence, hdlc.RetryNone)
	assert.Empty(t, decoded)
}

// A clean 1200 baud AFSK transmission of a short APRS frame must decode
// with no retry effort.
func TestAFSKDecodesCleanFrame(t *testing.T) {
	payload := testPayload()

	cfg := tncconfig.Channel{Modem: tncconfig.ModemAFSK, Baud: 1200, MarkFreq: 1200, SpaceFreq: 2200}
	modulate := NewModulator(cfg, 44100, 80)
	samples := modulate(payload, 32, 2)

	decoded := decodeAudio(t, samples, hdlc.RetryNone)
	require.Len(t, decoded, 1)
	assert.Equal(t, hdlc.RetryNone, decoded[0].RetryUsed)
	assert.Equal(t, payload, decoded[0].Payload)
}

// The same transmission with one line level inverted for one bit time
// fails the FCS as-is but is recovered by single-bit retry.
func TestAFSKRecoversSingleFlippedBit(t *testing.T) {
	payload := testPayload()
	levels := serializeLevels(payload, 32, 2)

	// Flip one level well inside the frame body: past the 32-flag
	// preamble and the opening flag, inside the address field.
	idx := 32*8 + 8 + 40
	levels[idx] = !levels[idx]

	cfg := tncconfig.Channel{Modem: tncconfig.ModemAFSK, Baud: 1200, MarkFreq: 1200, SpaceFreq: 2200}
	g := NewToneGen(cfg, 44100, 80)
	for _, lv := range levels {
		g.PutLevel(lv)
	}
	samples := g.Samples()

	require.Empty(t, decodeAudio(t, samples, hdlc.RetryNone))

	decoded := decodeAudio(t, samples, hdlc.RetryInvertSingle)
	require.Len(t, decoded, 1)
	assert.Equal(t, hdlc.RetryInvertSingle, decoded[0].RetryUsed)
	assert.Equal(t, payload, decoded[0].Payload)
}

// The same frame through the full concurrent path: sample channel ->
// Pipeline -> RetryWorker, the way the daemon wires it.
func TestPipelineAndWorkerDecodeOverChannels(t *testing.T) {
	payload := testPayload()

	cfg := tncconfig.Channel{Modem: tncconfig.ModemAFSK, Baud: 1200, MarkFreq: 1200, SpaceFreq: 2200}
	modulate := NewModulator(cfg, 44100, 80)
	rendered := modulate(payload, 32, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	samples := make(chan audio.Sample)
	go func() {
		defer close(samples)
		for _, s := range rendered {
			samples <- audio.Sample{Channel: 0, Value: s}
		}
	}()

	pipeline := NewPipeline(0, cfg, 44100, nil)
	worker := hdlc.RetryWorker{FixBits: hdlc.RetryNone, Sanity: tncconfig.SanityAX25}

	var decoded []*hdlc.Decoded
	for d := range worker.Run(ctx, pipeline.Run(ctx, samples)) {
		decoded = append(decoded, d)
	}
	require.Len(t, decoded, 1)
	assert.Equal(t, payload, decoded[0].Payload)
}

// With decimate set, the pipeline averages sample pairs and runs the
// demodulator at half rate; the frame must still decode.
func TestPipelineDecodesWithDecimation(t *testing.T) {
	payload := testPayload()

	txCfg := tncconfig.Channel{Modem: tncconfig.ModemAFSK, Baud: 1200, MarkFreq: 1200, SpaceFreq: 2200}
	modulate := NewModulator(txCfg, 44100, 80)
	rendered := modulate(payload, 32, 2)

	rxCfg := txCfg
	rxCfg.SampleRate = 44100
	rxCfg.Decimate = 2
	require.NoError(t, rxCfg.Validate())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	samples := make(chan audio.Sample)
	go func() {
		defer close(samples)
		for _, s := range rendered {
			samples <- audio.Sample{Channel: 0, Value: s}
		}
	}()

	pipeline := NewPipeline(0, rxCfg, 44100, nil)
	worker := hdlc.RetryWorker{FixBits: hdlc.RetryNone, Sanity: tncconfig.SanityAX25}

	var decoded []*hdlc.Decoded
	for d := range worker.Run(ctx, pipeline.Run(ctx, samples)) {
		decoded = append(decoded, d)
	}
	require.Len(t, decoded, 1)
	assert.Equal(t, payload, decoded[0].Payload)
}

// 9600 baud scrambled baseband: the transmit scrambler and the receive
// descrambler must cancel through the whole audio chain.
func TestScrambledBasebandRoundTrip(t *testing.T) {
	payload := testPayload()
	levels := serializeLevels(payload, 64, 2)

	cfg := tncconfig.Channel{Modem: tncconfig.ModemScrambled, Baud: 9600}
	g := NewToneGen(cfg, 48000, 80)
	for _, lv := range levels {
		g.PutLevel(lv)
	}

	var decoded []*hdlc.Decoded
	framer := hdlc.NewFramer(0, 0, 0, true, func(block *hdlc.RRBB, _ hdlc.SpeedInfo) {
		if d, err := hdlc.Decode(block, hdlc.RetryNone, tncconfig.SanityAX25, false); err == nil {
			decoded = append(decoded, d)
		}
	})

	d := NewBaseband(cfg, 48000, 2, 9600, nil)
	for _, sam := range g.Samples() {
		d.ProcessSample(int(sam), func(slice int, raw bool) {
			framer.ReceiveBit(raw)
		}, nil)
	}

	require.Len(t, decoded, 1)
	assert.Equal(t, payload, decoded[0].Payload)
}
