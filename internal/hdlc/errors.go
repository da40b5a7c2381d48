package hdlc

import "fmt"

// ErrBadCRC reports a frame whose FCS did not check out even after
// exhausting the configured retry effort.
type ErrBadCRC struct {
	Channel, Subchannel, Slice int
	FrameLen                   int
}

func (e *ErrBadCRC) Error() string {
	return fmt.Sprintf("hdlc: bad FCS on %d-octet frame (chan %d.%d slice %d)", e.FrameLen, e.Channel, e.Subchannel, e.Slice)
}
