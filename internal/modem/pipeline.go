package modem

import (
	"context"

	"github.com/kb9xyz/tncmodem/internal/audio"
	"github.com/kb9xyz/tncmodem/internal/hdlc"
	"github.com/kb9xyz/tncmodem/internal/tncconfig"
)

// Pipeline owns one channel's demodulator and its per-slicer framers.
// All of its state is touched only by the goroutine started in Run, so
// there is no locking anywhere in the receive path.
type Pipeline struct {
	Channel int
	Demod   *DemodState

	framers []*hdlc.Framer
	onDCD   func(slice int, detected bool)

	// CPU-saving decimation: decimate consecutive input samples are
	// averaged into one demodulator sample, and the demodulator itself
	// runs at the reduced rate.
	decimate    int
	sampleSum   int
	sampleCount int
}

// NewPipeline builds the demodulator selected by cfg.Modem plus one
// framer per slicer, running at sampleRate reduced by cfg.Decimate.
// onDCD (optional) is called whenever any slicer's carrier-detect state
// flips.
func NewPipeline(channel int, cfg tncconfig.Channel, sampleRate int, onDCD func(slice int, detected bool)) *Pipeline {
	p := &Pipeline{Channel: channel, onDCD: onDCD, decimate: cfg.Decimate}
	if p.decimate < 1 {
		p.decimate = 1
	}
	demodRate := sampleRate / p.decimate

	switch cfg.Modem {
	case tncconfig.ModemBaseband, tncconfig.ModemScrambled:
		p.Demod = NewBaseband(cfg, demodRate, 2, cfg.Baud, nil)
	default:
		p.Demod = NewAFSK(cfg, demodRate, cfg.Baud, cfg.MarkFreq, cfg.SpaceFreq, nil)
	}

	scrambled := cfg.Modem == tncconfig.ModemScrambled
	p.framers = make([]*hdlc.Framer, len(p.Demod.Slicers))
	for slice := range p.framers {
		p.framers[slice] = hdlc.NewFramer(channel, 0, slice, scrambled, nil)
	}
	return p
}

// Run consumes samples until the channel closes or ctx is cancelled,
// pushing every captured candidate bit block to the returned channel.
func (p *Pipeline) Run(ctx context.Context, samples <-chan audio.Sample) <-chan *hdlc.RRBB {
	out := make(chan *hdlc.RRBB, 4)

	for slice := range p.framers {
		p.framers[slice].Sink = func(block *hdlc.RRBB, _ hdlc.SpeedInfo) {
			block.AudioLevel = p.Demod.AudioLevel().Mark
			select {
			case out <- block:
			case <-ctx.Done():
			}
		}
	}

	afsk := p.Demod.Config.Modem == tncconfig.ModemAFSK
	onBit := func(slice int, raw bool) { p.framers[slice].ReceiveBit(raw) }
	process := func(sam int) {
		if afsk {
			p.Demod.ProcessAFSKSample(sam, func(slice int, raw bool, _ int) { onBit(slice, raw) }, p.onDCD)
		} else {
			p.Demod.ProcessSample(sam, onBit, p.onDCD)
		}
	}

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case s, ok := <-samples:
				if !ok {
					return
				}
				if s.Channel != p.Channel {
					continue
				}
				if p.decimate > 1 {
					p.sampleSum += int(s.Value)
					p.sampleCount++
					if p.sampleCount >= p.decimate {
						process(p.sampleSum / p.decimate)
						p.sampleSum = 0
						p.sampleCount = 0
					}
				} else {
					process(int(s.Value))
				}
			}
		}
	}()
	return out
}
