package dtmf

import "math"

// toneTimeoutSeconds is the inactivity period after which Detector emits
// a '$' end-of-sequence marker.
const toneTimeoutSeconds = 5

var dtmfFreqs = [8]float64{697, 770, 852, 941, 1209, 1336, 1477, 1633}

var buttonTable = [4][4]byte{
	{'1', '2', '3', 'A'},
	{'4', '5', '6', 'B'},
	{'7', '8', '9', 'C'},
	{'*', '0', '#', 'D'},
}

// Detector decodes DTMF button presses from an audio sample stream using
// the Goertzel algorithm, one instance per radio channel.
type Detector struct {
	sampleRate int
	blockSize  int
	coef       [8]float64

	n             int
	q1, q2        [8]float64
	prevDecoded   byte
	debounced     byte
	prevDebounced byte
	timeoutBlocks int
}

// NewDetector builds a Detector for the given audio sample rate. Block
// size is 205 samples at 8000 Hz, scaled proportionally, trading
// frequency resolution for latency.
func NewDetector(sampleRate int) *Detector {
	d := &Detector{sampleRate: sampleRate}
	d.blockSize = (205 * sampleRate) / 8000
	for j, f := range dtmfFreqs {
		k := float64(d.blockSize) * f / float64(sampleRate)
		d.coef[j] = 2.0 * math.Cos(2.0*math.Pi*k/float64(d.blockSize))
	}
	d.prevDecoded = ' '
	d.debounced = ' '
	d.prevDebounced = ' '
	return d
}

// toneDetectThreshold is how much stronger the winning tone in a group
// must be than the sum of the other three in the same group.
const toneDetectThreshold = 1.74

// Sample feeds one audio sample through the Goertzel filter bank. It
// returns the detected button on a debounced new button-push, '$' after
// toneTimeoutSeconds of silence following activity, '.' if nothing
// happened this sample, and ' ' mid-block.
func (d *Detector) Sample(input float64) byte {
	for i := range dtmfFreqs {
		q0 := input + d.q1[i]*d.coef[i] - d.q2[i]
		d.q2[i] = d.q1[i]
		d.q1[i] = q0
	}

	d.n++
	if d.n != d.blockSize {
		return ' '
	}

	var output [8]float64
	for i := range dtmfFreqs {
		output[i] = math.Sqrt(d.q1[i]*d.q1[i] + d.q2[i]*d.q2[i] - d.q1[i]*d.q2[i]*d.coef[i])
		d.q1[i] = 0
		d.q2[i] = 0
	}
	d.n = 0

	row := strongestOf(output[0], output[1], output[2], output[3], toneDetectThreshold)
	col := strongestOf(output[4], output[5], output[6], output[7], toneDetectThreshold)

	var decoded byte = ' '
	if row >= 0 && col >= 0 {
		decoded = buttonTable[row][col]
	}

	ret := byte('.')
	if decoded == d.prevDecoded {
		d.debounced = decoded
		if decoded != ' ' {
			d.timeoutBlocks = (toneTimeoutSeconds * d.sampleRate) / d.blockSize
		}
	}
	d.prevDecoded = decoded

	if d.debounced != d.prevDebounced && d.debounced != ' ' {
		ret = d.debounced
	}
	if ret == '.' && d.timeoutBlocks > 0 {
		d.timeoutBlocks--
		if d.timeoutBlocks == 0 {
			ret = '$'
		}
	}
	d.prevDebounced = d.debounced

	return ret
}

// strongestOf returns the index (0-3) of the value that exceeds the
// threshold multiple of the sum of the other three, or -1 if none does.
func strongestOf(a, b, c, e float64, threshold float64) int {
	switch {
	case a > threshold*(b+c+e):
		return 0
	case b > threshold*(a+c+e):
		return 1
	case c > threshold*(a+b+e):
		return 2
	case e > threshold*(a+b+c):
		return 3
	default:
		return -1
	}
}

// buttonTones maps a button to its row/column audio frequency pair, used
// for tone generation.
func buttonTones(button byte) (a, b float64, ok bool) {
	switch button {
	case '1':
		return dtmfFreqs[0], dtmfFreqs[4], true
	case '2':
		return dtmfFreqs[0], dtmfFreqs[5], true
	case '3':
		return dtmfFreqs[0], dtmfFreqs[6], true
	case 'A', 'a':
		return dtmfFreqs[0], dtmfFreqs[7], true
	case '4':
		return dtmfFreqs[1], dtmfFreqs[4], true
	case '5':
		return dtmfFreqs[1], dtmfFreqs[5], true
	case '6':
		return dtmfFreqs[1], dtmfFreqs[6], true
	case 'B', 'b':
		return dtmfFreqs[1], dtmfFreqs[7], true
	case '7':
		return dtmfFreqs[2], dtmfFreqs[4], true
	case '8':
		return dtmfFreqs[2], dtmfFreqs[5], true
	case '9':
		return dtmfFreqs[2], dtmfFreqs[6], true
	case 'C', 'c':
		return dtmfFreqs[2], dtmfFreqs[7], true
	case '*':
		return dtmfFreqs[3], dtmfFreqs[4], true
	case '0':
		return dtmfFreqs[3], dtmfFreqs[5], true
	case '#':
		return dtmfFreqs[3], dtmfFreqs[6], true
	case 'D', 'd':
		return dtmfFreqs[3], dtmfFreqs[7], true
	default:
		return 0, 0, false
	}
}

// GenerateButton synthesizes ms milliseconds of the dual-tone audio for
// button at the given sample rate and amplitude (0..1 of full scale),
// returning signed 16-bit samples. Unrecognized buttons produce silence.
func GenerateButton(button byte, sampleRate, ms int, amplitude float64) []int16 {
	fa, fb, ok := buttonTones(button)
	n := (ms * sampleRate) / 1000
	out := make([]int16, n)
	if !ok {
		return out
	}
	var phaseA, phaseB float64
	for i := 0; i < n; i++ {
		v := math.Sin(phaseA) + math.Sin(phaseB)
		phaseA += 2.0 * math.Pi * fa / float64(sampleRate)
		phaseB += 2.0 * math.Pi * fb / float64(sampleRate)
		out[i] = int16(v * 16383.0 * amplitude)
	}
	return out
}

// GenerateSequence synthesizes a full button sequence at the given tones-
// per-second rate, with silence gaps between presses the same length as
// the tones themselves.
func GenerateSequence(seq string, sampleRate int, tonesPerSecond int, amplitude float64) []int16 {
	toneMS := int(500.0/float64(tonesPerSecond) + 0.5)
	var out []int16
	for i := 0; i < len(seq); i++ {
		out = append(out, GenerateButton(seq[i], sampleRate, toneMS, amplitude)...)
		out = append(out, make([]int16, (toneMS*sampleRate)/1000)...)
	}
	return out
}
