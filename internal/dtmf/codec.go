package dtmf

import "strings"

// Encoding is the result of GuessType's classification between the two
// ambiguous button-sequence schemes.
type Encoding int

const (
	EncodingMultipress Encoding = iota
	EncodingTwoKey
	EncodingEither
)

// GuessType decides whether a button sequence looks like multi-press or
// two-key, by first ruling out multi-press if a B/C/D appears (multi-press
// never emits those), then quietly trying both decoders and preferring
// whichever one didn't error.
func GuessType(buttons string) Encoding {
	if strings.ContainsAny(buttons, "BCDbcd") {
		return EncodingTwoKey
	}

	_, errMP := MultipressToText(buttons)
	_, errTK := TwoKeyToText(buttons)

	switch {
	case errMP == nil && errTK != nil:
		return EncodingMultipress
	case errTK == nil && errMP != nil:
		return EncodingTwoKey
	default:
		return EncodingEither
	}
}

// Call5SuffixToText decodes the 5-digit APRStt-3 callsign suffix format
// (3 button digits + 2 decimal digits).
func Call5SuffixToText(buttons string) (string, error) {
	return call5SuffixToText(buttons)
}
