// Command tt2text decodes a DTMF button sequence with every decoder that
// accepts it: multi-press, two-key, fixed-length callsign, Maidenhead
// locator, and satellite gridsquare. Useful for testing APRStt sequences
// by hand.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/kb9xyz/tncmodem/internal/dtmf"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Printf("Supply button sequence on command line.\n")
		os.Exit(1)
	}

	buttons := strings.Join(os.Args[1:], "")

	switch dtmf.GuessType(buttons) {
	case dtmf.EncodingMultipress:
		fmt.Printf("Looks like multi-press encoding.\n")
	case dtmf.EncodingTwoKey:
		fmt.Printf("Looks like two-key encoding.\n")
	default:
		fmt.Printf("Could be either type of encoding.\n")
	}

	if text, err := dtmf.MultipressToText(buttons); err == nil {
		fmt.Printf("Decoded text from multi-press method:\n\"%s\"\n", text)
	}
	if text, err := dtmf.TwoKeyToText(buttons); err == nil {
		fmt.Printf("Decoded text from two-key method:\n\"%s\"\n", text)
	}
	if text, err := dtmf.Call10ToText(buttons); err == nil {
		fmt.Printf("Decoded callsign from 10 digit method:\n\"%s\"\n", text)
	}
	if text, err := dtmf.MaidenheadToText(buttons); err == nil {
		fmt.Printf("Decoded Maidenhead Locator from DTMF digits:\n\"%s\"\n", text)
	}
	if text, err := dtmf.SatsqToText(buttons); err == nil {
		fmt.Printf("Decoded satellite gridsquare from 4 DTMF digits:\n\"%s\"\n", text)
	}
}
