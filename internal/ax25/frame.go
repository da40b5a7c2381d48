package ax25

import (
	"fmt"
	"strings"
)

// Address is one 7-octet shifted-ASCII AX.25 address: 6 upper-case/
// digit/space callsign characters shifted left one bit, followed by an
// SSID octet carrying the C/R/RR reserved bits, the SSID itself, and the
// "last address" bit.
type Address struct {
	Call  string // up to 6 chars, upper case letters/digits
	SSID  int    // 0..15
	HBit  bool   // command/response ("has-been-repeated" for digipeaters)
	Final bool   // this is the last address in the list
}

// Pack writes the 7-octet on-wire representation of the address.
func (a Address) Pack() [7]byte {
	var out [7]byte
	call := strings.ToUpper(a.Call)
	for i := 0; i < 6; i++ {
		c := byte(' ')
		if i < len(call) {
			c = call[i]
		}
		out[i] = c << 1
	}
	ssidOctet := byte(0x60) | byte((a.SSID&0x0f)<<1) // reserved RR bits set per convention
	if a.HBit {
		ssidOctet |= 0x80
	}
	if a.Final {
		ssidOctet |= 0x01
	}
	out[6] = ssidOctet
	return out
}

// ParseAddress decodes one 7-octet address field.
func ParseAddress(b []byte) (Address, error) {
	if len(b) != 7 {
		return Address{}, fmt.Errorf("ax25: address field must be 7 octets, got %d", len(b))
	}
	var callBytes [6]byte
	for i := 0; i < 6; i++ {
		callBytes[i] = b[i] >> 1
	}
	call := strings.TrimRight(string(callBytes[:]), " ")
	ssidOctet := b[6]
	return Address{
		Call:  call,
		SSID:  int((ssidOctet >> 1) & 0x0f),
		HBit:  ssidOctet&0x80 != 0,
		Final: ssidOctet&0x01 != 0,
	}, nil
}

// String renders CALL-SSID, matching Dire Wolf's printed format.
func (a Address) String() string {
	if a.SSID == 0 {
		return a.Call
	}
	return fmt.Sprintf("%s-%d", a.Call, a.SSID)
}

// Frame is a fully parsed AX.25 frame: the address
// list, control/PID octets, and information field, with the FCS already
// stripped off by the HDLC layer.
type Frame struct {
	Addresses []Address // [0]=destination, [1]=source, [2:]=digipeater path
	Control   byte
	PID       byte // only meaningful for I/UI frames
	Info      []byte
}

// IsUI reports whether Control marks this as a UI frame (APRS's only
// frame type).
func (f Frame) IsUI() bool {
	return f.Control&0x03 == 0x03
}

// Destination and Source are convenience accessors; a parsed frame
// always carries both.
func (f Frame) Destination() Address { return f.Addresses[0] }
func (f Frame) Source() Address      { return f.Addresses[1] }
func (f Frame) Digipeaters() []Address {
	if len(f.Addresses) <= 2 {
		return nil
	}
	return f.Addresses[2:]
}

// Parse decodes a frame body (no flags, no FCS) into addresses,
// control/PID, and info: scan 7-octet groups until the "final address"
// bit is set, then the rest is control, PID, and information field.
func Parse(buf []byte) (Frame, error) {
	var f Frame
	pos := 0
	for {
		if pos+7 > len(buf) {
			return Frame{}, fmt.Errorf("ax25: truncated address field at offset %d", pos)
		}
		addr, err := ParseAddress(buf[pos : pos+7])
		if err != nil {
			return Frame{}, err
		}
		f.Addresses = append(f.Addresses, addr)
		pos += 7
		if addr.Final {
			break
		}
		if len(f.Addresses) > 10 {
			return Frame{}, fmt.Errorf("ax25: more than 10 addresses, final bit never set")
		}
	}
	if len(f.Addresses) < 2 {
		return Frame{}, fmt.Errorf("ax25: need at least 2 addresses, got %d", len(f.Addresses))
	}
	if pos >= len(buf) {
		return Frame{}, fmt.Errorf("ax25: no control octet after address field")
	}
	f.Control = buf[pos]
	pos++
	if f.IsUI() {
		if pos >= len(buf) {
			return Frame{}, fmt.Errorf("ax25: no PID octet after control")
		}
		f.PID = buf[pos]
		pos++
	}
	f.Info = append([]byte(nil), buf[pos:]...)
	return f, nil
}

// Pack assembles the frame body (no flags, no FCS) for transmission.
func (f Frame) Pack() []byte {
	var out []byte
	for i, a := range f.Addresses {
		a.Final = i == len(f.Addresses)-1
		packed := a.Pack()
		out = append(out, packed[:]...)
	}
	out = append(out, f.Control)
	if f.IsUI() {
		out = append(out, f.PID)
	}
	out = append(out, f.Info...)
	return out
}
