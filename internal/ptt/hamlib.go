package ptt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xylo04/goHamlib"
)

// hamlibNetworkModel is Hamlib's "network rig" pseudo-model: the device
// path is a host:port instead of a serial port.
const hamlibNetworkModel = 2

// hamlibBackend drives PTT through an external Hamlib-controlled rig via
// the goHamlib binding. Device is "model:path", e.g. "1035:/dev/ttyUSB0"
// (model 1035 = Kenwood TS-2000).
type hamlibBackend struct {
	rig *goHamlib.Rig
}

func openHamlib(device string) (backend, error) {
	model, path, err := parseHamlibDevice(device)
	if err != nil {
		return nil, err
	}

	rig := &goHamlib.Rig{}
	if err := rig.Init(goHamlib.RigModelID(model)); err != nil {
		return nil, fmt.Errorf("hamlib: init model %d: %w", model, err)
	}

	port := goHamlib.Port{
		RigPortType: goHamlib.RigPortSerial,
		Portname:    path,
		Baudrate:    38400,
		Databits:    8,
		Stopbits:    1,
	}
	if model == hamlibNetworkModel {
		port.RigPortType = goHamlib.RigPortNetwork
	}
	rig.SetPort(port)

	if err := rig.Open(); err != nil {
		return nil, fmt.Errorf("hamlib: open %s: %w", device, err)
	}
	return &hamlibBackend{rig: rig}, nil
}

func parseHamlibDevice(device string) (model int, path string, err error) {
	parts := strings.SplitN(device, ":", 2)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("hamlib: device must be \"model:path\", got %q", device)
	}
	model, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", fmt.Errorf("hamlib: invalid model number %q: %w", parts[0], err)
	}
	return model, parts[1], nil
}

// assert/release both only make sense for OutputPTT; Controller.Configure
// rejects HAMLIB for DCD/CON before a backend is ever opened.
func (h *hamlibBackend) assert(_ int, invert, on bool) error {
	ptt := goHamlib.RIG_PTT_ON
	if invert == on {
		ptt = goHamlib.RIG_PTT_OFF
	}
	return h.rig.SetPtt(goHamlib.VFOCurrent, ptt)
}

func (h *hamlibBackend) release(_ int, invert bool) error {
	ptt := goHamlib.RIG_PTT_OFF
	if invert {
		ptt = goHamlib.RIG_PTT_ON
	}
	return h.rig.SetPtt(goHamlib.VFOCurrent, ptt)
}

func (h *hamlibBackend) close() error {
	h.rig.Close()
	return nil
}
