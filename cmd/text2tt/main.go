// Command text2tt converts text to DTMF button sequences in every
// encoding that accepts it, the counterpart of tt2text.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/kb9xyz/tncmodem/internal/dtmf"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Printf("Supply text string on command line.\n")
		os.Exit(1)
	}

	text := strings.Join(os.Args[1:], " ")

	if buttons, err := dtmf.TextToMultipress(text); err == nil {
		cs := dtmf.Checksum(buttons) - '0'
		fmt.Printf("Push buttons for multi-press method:\n\"%s\"    checksum for call = %d\n", buttons, cs)
	}
	if buttons, err := dtmf.TextToTwoKey(text); err == nil {
		cs := dtmf.Checksum(buttons) - '0'
		fmt.Printf("Push buttons for two-key method:\n\"%s\"    checksum for call = %d\n", buttons, cs)
	}
	if buttons, err := dtmf.TextToCall10(text); err == nil {
		fmt.Printf("Push buttons for fixed length 10 digit callsign:\n\"%s\"\n", buttons)
	}
	if buttons, err := dtmf.TextToMaidenhead(text); err == nil {
		fmt.Printf("Push buttons for Maidenhead Grid Square Locator:\n\"%s\"\n", buttons)
	}
	if buttons, err := dtmf.TextToSatsq(text); err == nil {
		fmt.Printf("Push buttons for satellite gridsquare:\n\"%s\"\n", buttons)
	}
}
