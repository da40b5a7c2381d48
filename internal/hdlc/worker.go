package hdlc

import "context"

// RetryWorker decodes captured bit blocks off a channel, one goroutine per
// radio channel, so an expensive two-separated-bits search never stalls
// the demodulator feeding it.
type RetryWorker struct {
	FixBits RetryLevel
	Sanity  SanityLevel
	PassAll bool
}

// Run consumes blocks until the channel closes or ctx is cancelled,
// emitting every successful decode. The returned channel is closed when
// the worker exits.
func (w RetryWorker) Run(ctx context.Context, blocks <-chan *RRBB) <-chan *Decoded {
	out := make(chan *Decoded)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case block, ok := <-blocks:
				if !ok {
					return
				}
				decoded, err := Decode(block, w.FixBits, w.Sanity, w.PassAll)
				if err != nil {
					continue
				}
				select {
				case out <- decoded:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
