// Package ptt implements the polymorphic push-to-talk control
// abstraction: a single Assert/Release interface fanning out to SERIAL,
// GPIO, LPT, HAMLIB, or CM108 back-ends, with device handles shared
// across channels and outputs that target the same physical line.
package ptt

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/kb9xyz/tncmodem/internal/tncconfig"
)

// OutputType is re-exported from tncconfig so callers of this package
// don't need a second import just to name PTT/DCD/CON.
type OutputType = tncconfig.OutputType

// LineConfig is one channel's (method, device, line, invert) tuple for
// one output type.
type LineConfig struct {
	Method tncconfig.PTTMethod
	Device string // serial/LPT device path, GPIO chip path, or CM108 hidraw path
	Line   int    // GPIO line number, or LPT bit number
	Invert bool
}

// backend is the interface every PTT method implements; Controller talks
// only to this, never to a concrete serial/GPIO/etc. type.
type backend interface {
	assert(line int, invert, on bool) error
	release(line int, invert bool) error
	close() error
}

// Controller owns every open device handle for a process and serializes
// all writes through a per-device lock. Handles are keyed by device
// identity so two lines of the same device (e.g. RTS for channel 0, DTR
// for channel 1 on one serial port) share a single open handle.
type Controller struct {
	mu       sync.Mutex
	handles  map[string]backend // keyed by "method:device"
	channels map[int]map[OutputType]LineConfig
	openers  backendOpeners
}

// backendOpeners lets tests substitute fakes for the real OS-facing
// backends without touching Controller's logic.
type backendOpeners struct {
	serial func(device string) (backend, error)
	gpio   func(device string) (backend, error)
	lpt    func(device string) (backend, error)
	hamlib func(device string) (backend, error)
	cm108  func(device string) (backend, error)
}

// NewController builds a Controller using the real OS back-ends.
func NewController() *Controller {
	return &Controller{
		handles:  make(map[string]backend),
		channels: make(map[int]map[OutputType]LineConfig),
		openers: backendOpeners{
			serial: openSerial,
			gpio:   openGPIO,
			lpt:    openLPT,
			hamlib: openHamlib,
			cm108:  openCM108,
		},
	}
}

// Configure registers channel's LineConfig for output type ot. If the
// backend device can't be opened, the method degrades to NONE with a
// logged warning; a TNC with no PTT line still receives fine.
func (c *Controller) Configure(channel int, ot OutputType, cfg LineConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cfg.Method == tncconfig.PTTHamlib && ot != tncconfig.OutputPTT {
		log.Warn("ptt: HAMLIB can only be used for PTT, degrading to NONE", "channel", channel, "output", ot)
		cfg = LineConfig{Method: tncconfig.PTTNone}
	}

	if cfg.Method != tncconfig.PTTNone {
		if _, err := c.handleFor(cfg); err != nil {
			log.Warn("ptt: failed to open device, degrading to NONE", "channel", channel, "output", ot, "device", cfg.Device, "err", err)
			cfg = LineConfig{Method: tncconfig.PTTNone}
		}
	}

	if c.channels[channel] == nil {
		c.channels[channel] = make(map[OutputType]LineConfig)
	}
	c.channels[channel][ot] = cfg

	if cfg.Method != tncconfig.PTTNone {
		if err := c.release(channel, ot); err != nil {
			log.Warn("ptt: initial release failed", "channel", channel, "output", ot, "err", err)
		}
	}
}

// handleFor opens (or reuses) the backend handle for cfg's device,
// creating it on first use. Must be called with c.mu held.
func (c *Controller) handleFor(cfg LineConfig) (backend, error) {
	key := fmt.Sprintf("%d:%s", cfg.Method, cfg.Device)
	if h, ok := c.handles[key]; ok {
		return h, nil
	}

	var open func(string) (backend, error)
	switch cfg.Method {
	case tncconfig.PTTSerial:
		open = c.openers.serial
	case tncconfig.PTTGPIO:
		open = c.openers.gpio
	case tncconfig.PTTLPT:
		open = c.openers.lpt
	case tncconfig.PTTHamlib:
		open = c.openers.hamlib
	case tncconfig.PTTCM108:
		open = c.openers.cm108
	default:
		return nil, fmt.Errorf("ptt: unsupported method %v", cfg.Method)
	}

	h, err := open(cfg.Device)
	if err != nil {
		return nil, err
	}
	c.handles[key] = h
	return h, nil
}

// Assert turns an output line on (PTT keyed, DCD indicated, or CON
// asserted). Assertion failure is logged but non-fatal.
func (c *Controller) Assert(channel int, ot OutputType) error {
	return c.setLine(channel, ot, true)
}

// Release turns an output line off.
func (c *Controller) Release(channel int, ot OutputType) error {
	return c.setLine(channel, ot, false)
}

func (c *Controller) setLine(channel int, ot OutputType, on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on {
		return c.assert(channel, ot)
	}
	return c.release(channel, ot)
}

func (c *Controller) assert(channel int, ot OutputType) error {
	cfg, ok := c.channels[channel][ot]
	if !ok || cfg.Method == tncconfig.PTTNone {
		return nil
	}
	h, err := c.handleFor(cfg)
	if err != nil {
		log.Error("ptt: assert failed to reach device", "channel", channel, "output", ot, "err", err)
		return err
	}
	if err := h.assert(cfg.Line, cfg.Invert, true); err != nil {
		log.Error("ptt: assert failed", "channel", channel, "output", ot, "err", err)
		return err
	}
	return nil
}

func (c *Controller) release(channel int, ot OutputType) error {
	cfg, ok := c.channels[channel][ot]
	if !ok || cfg.Method == tncconfig.PTTNone {
		return nil
	}
	h, err := c.handleFor(cfg)
	if err != nil {
		return err
	}
	return h.release(cfg.Line, cfg.Invert)
}

// Shutdown deasserts every configured output, then closes every open
// device handle. Leaving a transmitter keyed on exit would be rude at
// best.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for channel, outputs := range c.channels {
		for ot := range outputs {
			if err := c.release(channel, ot); err != nil {
				log.Warn("ptt: shutdown release failed", "channel", channel, "output", ot, "err", err)
			}
		}
	}
	for key, h := range c.handles {
		if err := h.close(); err != nil {
			log.Warn("ptt: shutdown close failed", "handle", key, "err", err)
		}
	}
}
