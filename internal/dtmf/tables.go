// Package dtmf implements the APRStt touch-tone text codec:
// multi-press, two-key, fixed-length 10-digit callsign, Maidenhead grid,
// satellite-gridsquare, and ASCII-2D encodings, plus a call-authentication
// checksum.
package dtmf

// keypad is the standard DTMF letter layout every encoding in this
// package is built on. Row is the button 0-9, column is position within
// that button's letters (0-3); a zero rune marks an unused slot.
var keypad = [10][4]rune{
	0: {' ', 0, 0, 0},
	1: {0, 0, 0, 0},
	2: {'A', 'B', 'C', 0},
	3: {'D', 'E', 'F', 0},
	4: {'G', 'H', 'I', 0},
	5: {'J', 'K', 'L', 0},
	6: {'M', 'N', 'O', 0},
	7: {'P', 'Q', 'R', 'S'},
	8: {'T', 'U', 'V', 0},
	9: {'W', 'X', 'Y', 'Z'},
}

// call10Keypad is the QIKcom-2 fixed-length-callsign keypad: digit 0 is
// itself plus space, every other button is its digit plus up to three
// letters, column packed as a base-4 digit per character.
var call10Keypad = [10][4]rune{
	0: {'0', ' ', 0, 0},
	1: {'1', 'Q', 'Z', 0},
	2: {'2', 'A', 'B', 'C'},
	3: {'3', 'D', 'E', 'F'},
	4: {'4', 'G', 'H', 'I'},
	5: {'5', 'J', 'K', 'L'},
	6: {'6', 'M', 'N', 'O'},
	7: {'7', 'P', 'R', 'S'},
	8: {'8', 'T', 'U', 'V'},
	9: {'9', 'W', 'X', 'Y'},
}

// satGrid is the special 4-digit satellite-gridsquare lookup table. The
// 100 squares are chosen to cover nearly all of the world's population.
var satGrid = [10][10]string{
	{"AP", "BP", "AO", "BO", "CO", "DO", "EO", "FO", "GO", "OJ"},
	{"CN", "DN", "EN", "FN", "GN", "CM", "DM", "EM", "FM", "OI"},
	{"DL", "EL", "FL", "DK", "EK", "FK", "EJ", "FJ", "GJ", "PI"},
	{"FI", "GI", "HI", "FH", "GH", "HH", "FG", "GG", "FF", "GF"},
	{"JP", "IO", "JO", "KO", "IN", "JN", "KN", "IM", "JM", "KM"},
	{"LO", "MO", "NO", "OO", "PO", "QO", "RO", "LN", "MN", "NN"},
	{"ON", "PN", "QN", "OM", "PM", "QM", "OL", "PL", "OK", "PK"},
	{"LM", "MM", "NM", "LL", "ML", "NL", "LK", "MK", "NK", "LJ"},
	{"PH", "QH", "OG", "PG", "QG", "OF", "PF", "QF", "RF", "RE"},
	{"IL", "IK", "IJ", "JJ", "JI", "JH", "JG", "KG", "JF", "KF"},
}

// mhPairRange describes the allowed character class for one pair of a
// Maidenhead locator: letters A-R/A-X for the coarse fields, digits for the
// fine fields, alternating.
type mhPairRange struct {
	minCh, maxCh rune
}

const maxMaidenheadPairs = 6

var maidenheadPairRanges = [maxMaidenheadPairs]mhPairRange{
	{'A', 'R'},
	{'0', '9'},
	{'A', 'X'},
	{'0', '9'},
	{'A', 'X'},
	{'0', '9'},
}
