package ptt

import (
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

// gpioBackend drives a single GPIO line via the kernel gpiod character
// device. Sysfs GPIO is deprecated in current kernels, so this uses the
// character-device binding rather than sysfs file writes.
type gpioBackend struct {
	chip string
	line int

	requests map[int]*gpiocdev.Line
}

func openGPIO(device string) (backend, error) {
	chip := device
	if idx := strings.IndexByte(device, ':'); idx >= 0 {
		chip = device[:idx]
	}
	return &gpioBackend{chip: chip, requests: make(map[int]*gpiocdev.Line)}, nil
}

func (g *gpioBackend) lineFor(offset int) (*gpiocdev.Line, error) {
	if l, ok := g.requests[offset]; ok {
		return l, nil
	}
	l, err := gpiocdev.RequestLine(g.chip, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, err
	}
	g.requests[offset] = l
	return l, nil
}

func (g *gpioBackend) assert(line int, invert, on bool) error {
	return g.setLine(line, invert != on)
}

func (g *gpioBackend) release(line int, invert bool) error {
	return g.setLine(line, invert)
}

func (g *gpioBackend) setLine(offset int, high bool) error {
	l, err := g.lineFor(offset)
	if err != nil {
		return err
	}
	v := 0
	if high {
		v = 1
	}
	return l.SetValue(v)
}

func (g *gpioBackend) close() error {
	var firstErr error
	for _, l := range g.requests {
		if err := l.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
