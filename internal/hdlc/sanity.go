package hdlc

import "github.com/kb9xyz/tncmodem/internal/tncconfig"

// SanityLevel aliases the configuration type so callers already holding a
// channel config can pass its sanity_test value straight through.
type SanityLevel = tncconfig.SanityLevel

// sanityCheck is NOT a validity check; a passing FCS already proves the
// bits are internally consistent. It is a plausibility filter applied only
// to bit-flip recoveries: we don't know whether flipping bits fixed the
// corruption or just found an unrelated valid-looking CRC, so we refuse to
// report a "fix" that doesn't look like a real AX.25/APRS frame.
func sanityCheck(buf []byte, retry RetryLevel, level SanityLevel) bool {
	if retry == RetryNone {
		return true
	}
	if level == tncconfig.SanityNone {
		return true
	}

	var addrLen int
	for j := 0; j < len(buf); j++ {
		if buf[j]&0x01 != 0 {
			addrLen = j + 1
			break
		}
	}
	if addrLen%7 != 0 {
		return false
	}
	numAddrs := addrLen / 7
	if numAddrs < 2 || numAddrs > 10 {
		return false
	}

	for j := 0; j < addrLen; j += 7 {
		for k := 0; k < 6; k++ {
			ch := rune(buf[j+k] >> 1)
			upperOrDigit := (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
			if k == 0 {
				if !upperOrDigit {
					return false
				}
			} else if !upperOrDigit && ch != ' ' {
				return false
			}
		}
	}

	if level == tncconfig.SanityAX25 {
		return true
	}

	// SanityAPRS: control/PID must look like a UI frame (0x03, 0xF0), and
	// the information field must be printable ASCII plus a short allow-list
	// of bytes real APRS payloads are known to carry.
	if addrLen+1 >= len(buf) || buf[addrLen] != 0x03 || buf[addrLen+1] != 0xf0 {
		return false
	}

	for j := addrLen + 2; j < len(buf); j++ {
		ch := buf[j]
		ok := (ch >= 0x1c && ch <= 0x7f) ||
			ch == 0x0a || ch == 0x0d ||
			ch == 0x80 || ch == 0x9f || ch == 0xc2 || ch == 0xb0 || ch == 0xf8
		if !ok {
			return false
		}
	}

	return true
}
