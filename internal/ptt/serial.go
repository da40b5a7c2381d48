package ptt

import (
	"os"

	"golang.org/x/sys/unix"
)

// serialLine values name which control line a channel's PTT output sits
// on; two channels can share one serial port by driving RTS for one and
// DTR for the other.
const (
	lineRTS = 0
	lineDTR = 1
)

// serialBackend drives RTS/DTR modem control lines via TIOCMGET/TIOCMSET.
type serialBackend struct {
	f *os.File
}

func openSerial(device string) (backend, error) {
	f, err := os.OpenFile(device, os.O_RDWR|os.O_NOCTTY, 0)
	if err != nil {
		return nil, err
	}
	return &serialBackend{f: f}, nil
}

// assert treats line as lineRTS or lineDTR (the Line field in LineConfig);
// invert flips the logical sense before driving the physical bit.
func (s *serialBackend) assert(line int, invert, on bool) error {
	return s.setLine(line, invert != on)
}

func (s *serialBackend) release(line int, invert bool) error {
	return s.setLine(line, invert)
}

func (s *serialBackend) setLine(line int, raise bool) error {
	bit := unix.TIOCM_RTS
	if line == lineDTR {
		bit = unix.TIOCM_DTR
	}
	stuff, err := unix.IoctlGetInt(int(s.f.Fd()), unix.TIOCMGET)
	if err != nil {
		return err
	}
	if raise {
		stuff |= bit
	} else {
		stuff &^= bit
	}
	return unix.IoctlSetInt(int(s.f.Fd()), unix.TIOCMSET, stuff)
}

func (s *serialBackend) close() error {
	return s.f.Close()
}
