package ax25

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestAddressPackParseRoundTrip(t *testing.T) {
	a := Address{Call: "WB4APR", SSID: 9, HBit: true, Final: true}
	packed := a.Pack()

	got, err := ParseAddress(packed[:])
	require.NoError(t, err)
	assert.Equal(t, a, got)
}

func TestAddressPackPadsShortCallWithSpaces(t *testing.T) {
	a := Address{Call: "N0CALL"}
	packed := a.Pack()
	got, err := ParseAddress(packed[:])
	require.NoError(t, err)
	assert.Equal(t, "N0CALL", got.Call)

	short := Address{Call: "KB9"}
	packed = short.Pack()
	got, err = ParseAddress(packed[:])
	require.NoError(t, err)
	assert.Equal(t, "KB9", got.Call)
}

func TestAddressStringOmitsZeroSSID(t *testing.T) {
	assert.Equal(t, "WB4APR", Address{Call: "WB4APR", SSID: 0}.String())
	assert.Equal(t, "WB4APR-9", Address{Call: "WB4APR", SSID: 9}.String())
}

func TestParseAddressRejectsWrongLength(t *testing.T) {
	_, err := ParseAddress([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestFrameIsUIDetectsControlField(t *testing.T) {
	assert.True(t, Frame{Control: 0x03}.IsUI())
	assert.False(t, Frame{Control: 0x00}.IsUI())
}

func TestFramePackParseRoundTripUI(t *testing.T) {
	f := Frame{
		Addresses: []Address{
			{Call: "WB4APR", SSID: 0},
			{Call: "KB9XYZ", SSID: 5},
		},
		Control: 0x03,
		PID:     0xF0,
		Info:    []byte("hello world"),
	}

	got, err := Parse(f.Pack())
	require.NoError(t, err)

	// Pack marks the last address as final on the wire, so the parsed
	// list carries that bit.
	want := append([]Address(nil), f.Addresses...)
	want[len(want)-1].Final = true
	assert.Equal(t, want, got.Addresses)
	assert.Equal(t, f.Control, got.Control)
	assert.Equal(t, f.PID, got.PID)
	assert.Equal(t, f.Info, got.Info)
}

func TestFramePackParseRoundTripWithDigipeaters(t *testing.T) {
	f := Frame{
		Addresses: []Address{
			{Call: "DEST", SSID: 0},
			{Call: "SRC", SSID: 1},
			{Call: "WIDE1", SSID: 1, HBit: true},
			{Call: "WIDE2", SSID: 2},
		},
		Control: 0x03,
		PID:     0xF0,
		Info:    []byte("test"),
	}

	got, err := Parse(f.Pack())
	require.NoError(t, err)
	require.Len(t, got.Addresses, 4)
	assert.Equal(t, f.Destination(), got.Destination())
	assert.Equal(t, f.Source(), got.Source())

	wantDigis := append([]Address(nil), f.Digipeaters()...)
	wantDigis[len(wantDigis)-1].Final = true
	assert.Equal(t, wantDigis, got.Digipeaters())
	assert.True(t, got.Digipeaters()[0].HBit)
}

func TestParseRejectsTruncatedAddressField(t *testing.T) {
	_, err := Parse([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestParseRejectsSingleAddress(t *testing.T) {
	a := Address{Call: "SOLO", Final: true}
	packed := a.Pack()
	_, err := Parse(packed[:])
	assert.Error(t, err)
}

func TestParseRejectsMissingControlOctet(t *testing.T) {
	dest := Address{Call: "DEST"}
	src := Address{Call: "SRC", Final: true}
	destPacked := dest.Pack()
	srcPacked := src.Pack()
	buf := append(append([]byte(nil), destPacked[:]...), srcPacked[:]...)
	_, err := Parse(buf)
	assert.Error(t, err)
}

func TestAddressRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(rt, "n")
		call := make([]byte, n)
		alphabet := []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
		for i := range call {
			call[i] = rapid.SampledFrom(alphabet).Draw(rt, "c")
		}
		a := Address{
			Call:  string(call),
			SSID:  rapid.IntRange(0, 15).Draw(rt, "ssid"),
			HBit:  rapid.Bool().Draw(rt, "hbit"),
			Final: rapid.Bool().Draw(rt, "final"),
		}
		packed := a.Pack()
		got, err := ParseAddress(packed[:])
		if err != nil {
			rt.Fatalf("ParseAddress: %v", err)
		}
		if got != a {
			rt.Fatalf("round trip mismatch: got %+v, want %+v", got, a)
		}
	})
}
