// Command tncmodem wires the receive signal chain (sample pump -> demod ->
// HDLC framer/retry engine -> AX.25 parse) over a PCM source for one audio
// channel. It is intentionally a thin wiring layer over the core
// packages: real sound-card back-ends and direwolf.conf-style config
// files live elsewhere, so input is any PCM byte stream reachable as a
// file, stdin, or UDP socket.
package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/kb9xyz/tncmodem/internal/audio"
	"github.com/kb9xyz/tncmodem/internal/ax25"
	"github.com/kb9xyz/tncmodem/internal/dwlog"
	"github.com/kb9xyz/tncmodem/internal/hdlc"
	"github.com/kb9xyz/tncmodem/internal/modem"
	"github.com/kb9xyz/tncmodem/internal/ptt"
	"github.com/kb9xyz/tncmodem/internal/tncconfig"
)

func main() {
	var (
		input      = pflag.StringP("input", "i", "-", `PCM source: a file path, "udp:host:port", or "-" for stdin`)
		modemFlag  = pflag.String("modem", "afsk", `demodulator family: "afsk" or "baseband"`)
		baud       = pflag.Int("baud", 1200, "channel baud rate")
		mark       = pflag.Int("mark", 1200, "AFSK mark tone frequency in Hz")
		space      = pflag.Int("space", 2200, "AFSK space tone frequency in Hz")
		sampleRate = pflag.Int("sample-rate", 44100, "input sample rate in Hz")
		bits       = pflag.Int("bits", 16, "PCM sample width: 8 or 16")
		channels   = pflag.Int("channels", 1, "PCM channel count (1=mono, 2=stereo)")
		decimate   = pflag.Int("decimate", 1, "divide CPU load by averaging this many samples, 1-3")
		fixBits    = pflag.Int("fix-bits", 0, "bit-flip retry effort, 0-4")
		pttMethod  = pflag.String("ptt-method", "none", "PTT back-end: none, serial, gpio, lpt, hamlib, cm108")
		pttDevice  = pflag.String("ptt-device", "", "PTT device path (method-specific format)")
		logDir     = pflag.StringP("log-dir", "l", "", "directory for daily CSV receive logs")
		debug      = pflag.IntP("debug", "d", 0, "debug verbosity")
	)
	pflag.Parse()

	logger := dwlog.New(os.Stderr, *debug)

	chanCfg, err := buildChannelConfig(*modemFlag, *baud, *mark, *space, *sampleRate, *decimate, *fixBits)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	reader, closeFn, err := openSource(*input)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeFn()

	pttController := ptt.NewController()
	if method, ok := parsePTTMethod(*pttMethod); ok && method != tncconfig.PTTNone {
		pttController.Configure(0, tncconfig.OutputPTT, ptt.LineConfig{Method: method, Device: *pttDevice})
	}
	defer pttController.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	format := audio.Format{SampleRate: *sampleRate, NumChannels: *channels, BitsPer: audio.BitsPerSample(*bits)}
	pump, err := audio.NewPump(format, 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var csvLog *dwlog.CSVReceiveLog
	if *logDir != "" {
		csvLog, err = dwlog.NewDailyCSVReceiveLog(*logDir, "%Y-%m-%d.log")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer csvLog.Close()
	}

	onFrame := func(d *hdlc.Decoded) {
		frame, err := ax25.Parse(d.Payload)
		if err != nil {
			logger.SetColor(dwlog.ColorError)
			logger.Printf("channel %d: ax25 parse failed: %v", d.Channel, err)
			return
		}
		logger.SetColor(dwlog.ColorDecoded)
		logger.Printf("channel %d: %s>%s retry=%s", d.Channel, frame.Source(), frame.Destination(), d.RetryUsed)
		if csvLog != nil {
			row := dwlog.ReceiveRow{
				Time:         time.Now(),
				Channel:      d.Channel,
				Subchannel:   d.Subchannel,
				Slice:        d.Slice,
				Source:       frame.Source().String(),
				Destination:  frame.Destination().String(),
				AudioLevel:   d.AudioLevel,
				RetryClass:   d.RetryUsed.String(),
				SanityPassed: true,
			}
			if err := csvLog.Append(row); err != nil {
				logger.SetColor(dwlog.ColorError)
				logger.Printf("receive log: %v", err)
			}
		}
	}

	onDCD := func(slice int, detected bool) {
		if detected {
			_ = pttController.Assert(0, tncconfig.OutputDCD)
		} else {
			_ = pttController.Release(0, tncconfig.OutputDCD)
		}
	}

	// One goroutine per stage: pump -> demod/framer pipeline -> retry
	// worker, with the dedupe window collapsing parallel-slicer copies.
	pipeline := modem.NewPipeline(0, chanCfg, *sampleRate, onDCD)
	worker := hdlc.RetryWorker{
		FixBits: hdlc.RetryLevel(chanCfg.FixBits),
		Sanity:  chanCfg.SanityTest,
		PassAll: chanCfg.PassAll,
	}
	sink := hdlc.NewDeduper(100*time.Millisecond, onFrame)

	samples := pump.Run(ctx, reader)
	blocks := pipeline.Run(ctx, samples)
	for decoded := range worker.Run(ctx, blocks) {
		sink.Submit(decoded)
	}

	if err := pump.Err(); err != nil {
		logger.SetColor(dwlog.ColorError)
		logger.Printf("audio input: %v", err)
	}
}

// buildChannelConfig translates CLI flags into the plain
// tncconfig.Channel value the core packages consume.
func buildChannelConfig(modemFlag string, baud, mark, space, sampleRate, decimate, fixBits int) (tncconfig.Channel, error) {
	var mt tncconfig.ModemType
	switch modemFlag {
	case "afsk":
		mt = tncconfig.ModemAFSK
	case "baseband":
		mt = tncconfig.ModemBaseband
	default:
		return tncconfig.Channel{}, fmt.Errorf("unknown -modem %q", modemFlag)
	}
	if fixBits < int(tncconfig.RetryNone) || fixBits > int(tncconfig.RetryInvertTwoSep) {
		return tncconfig.Channel{}, &tncconfig.ErrInvalidConfig{Setting: "fix-bits", Reason: "out of range 0-4"}
	}
	cfg := tncconfig.Channel{
		Modem:      mt,
		Baud:       baud,
		MarkFreq:   mark,
		SpaceFreq:  space,
		SampleRate: sampleRate,
		Decimate:   decimate,
		FixBits:    tncconfig.RetryEffort(fixBits),
		SanityTest: tncconfig.SanityAX25,
	}
	if err := cfg.Validate(); err != nil {
		return tncconfig.Channel{}, err
	}
	return cfg, nil
}

func parsePTTMethod(s string) (tncconfig.PTTMethod, bool) {
	switch s {
	case "none", "":
		return tncconfig.PTTNone, true
	case "serial":
		return tncconfig.PTTSerial, true
	case "gpio":
		return tncconfig.PTTGPIO, true
	case "lpt":
		return tncconfig.PTTLPT, true
	case "hamlib":
		return tncconfig.PTTHamlib, true
	case "cm108":
		return tncconfig.PTTCM108, true
	default:
		return tncconfig.PTTNone, false
	}
}

// openSource resolves -input into a readable stream: "-" for stdin, a
// "udp:host:port" address for a UDP socket (e.g. an SDR's audio-over-IP
// output), or a plain path for a file.
func openSource(spec string) (io.Reader, func() error, error) {
	switch {
	case spec == "-" || spec == "":
		return os.Stdin, func() error { return nil }, nil
	case len(spec) > 4 && spec[:4] == "udp:":
		addr, err := net.ResolveUDPAddr("udp", spec[4:])
		if err != nil {
			return nil, nil, fmt.Errorf("tncmodem: invalid udp address %q: %w", spec[4:], err)
		}
		conn, err := net.ListenUDP("udp", addr)
		if err != nil {
			return nil, nil, fmt.Errorf("tncmodem: listen udp: %w", err)
		}
		return conn, conn.Close, nil
	default:
		f, err := os.Open(spec)
		if err != nil {
			return nil, nil, fmt.Errorf("tncmodem: open input: %w", err)
		}
		return f, f.Close, nil
	}
}
