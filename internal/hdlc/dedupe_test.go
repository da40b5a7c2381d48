package hdlc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeduperKeepsLowestRetryCopy(t *testing.T) {
	var got []*Decoded
	done := make(chan struct{})
	d := NewDeduper(30*time.Millisecond, func(dec *Decoded) {
		got = append(got, dec)
		close(done)
	})

	payload := samplePayload()
	d.Submit(&Decoded{Channel: 0, Slice: 1, Payload: payload, RetryUsed: RetryInvertSingle})
	d.Submit(&Decoded{Channel: 0, Slice: 0, Payload: payload, RetryUsed: RetryNone})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("deduper never flushed")
	}

	require.Len(t, got, 1)
	assert.Equal(t, RetryNone, got[0].RetryUsed)
	assert.Equal(t, 0, got[0].Slice)
}

func TestDeduperSeparatesDistinctContent(t *testing.T) {
	emitted := make(chan *Decoded, 4)
	d := NewDeduper(10*time.Millisecond, func(dec *Decoded) { emitted <- dec })

	d.Submit(&Decoded{Channel: 0, Payload: []byte("one one one one one"), RetryUsed: RetryNone})
	d.Submit(&Decoded{Channel: 0, Payload: []byte("two two two two two"), RetryUsed: RetryNone})

	for i := 0; i < 2; i++ {
		select {
		case <-emitted:
		case <-time.After(time.Second):
			t.Fatalf("frame %d never emitted", i)
		}
	}
}

func TestDeduperZeroWindowPassesThrough(t *testing.T) {
	var got int
	d := NewDeduper(0, func(*Decoded) { got++ })
	d.Submit(&Decoded{Payload: []byte("x")})
	d.Submit(&Decoded{Payload: []byte("x")})
	assert.Equal(t, 2, got)
}

func TestRetryWorkerDecodesOffChannel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	blocks := make(chan *RRBB, 1)
	blocks <- buildBlock(samplePayload())
	close(blocks)

	w := RetryWorker{FixBits: RetryNone}
	out := w.Run(ctx, blocks)

	var got []*Decoded
	for d := range out {
		got = append(got, d)
	}
	require.Len(t, got, 1)
	assert.Equal(t, RetryNone, got[0].RetryUsed)
}

func TestRetryWorkerDropsUndecodableBlocks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	block := buildBlock(samplePayload())
	block.bits[25] = !block.bits[25]

	blocks := make(chan *RRBB, 1)
	blocks <- block
	close(blocks)

	w := RetryWorker{FixBits: RetryNone}
	out := w.Run(ctx, blocks)

	count := 0
	for range out {
		count++
	}
	assert.Equal(t, 0, count)
}
