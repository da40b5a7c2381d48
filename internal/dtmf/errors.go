package dtmf

import "fmt"

// InvalidEncoding is returned by any decoder that rejects a sequence:
// a diagnostic count plus the first offending reason.
type InvalidEncoding struct {
	Reason string
	Count  int
}

func (e *InvalidEncoding) Error() string {
	if e.Count > 1 {
		return fmt.Sprintf("dtmf: invalid encoding (%d errors): %s", e.Count, e.Reason)
	}
	return fmt.Sprintf("dtmf: invalid encoding: %s", e.Reason)
}
