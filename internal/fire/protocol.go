// Package fire speaks the grid protocol of the fire display: a plain-text UDP
// datagram carrying one row of on/off cells per note.
package fire

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"touchkeys/internal/keys"
)

const (
	// Port is the UDP port the display listens on.
	Port = 1075

	// DefaultHost is the display's address on its own access point.
	DefaultHost = "192.168.42.1"

	// Version is the protocol version sent on the first line.
	Version = "0"

	// MaxDatagram is larger than any valid message; receivers read into it.
	MaxDatagram = 1024

	headerLines = 3
	totalLines  = headerLines + len(keys.Notes)
)

// ErrMalformed wraps every validation failure.
var ErrMalformed = errors.New("malformed fire message")

var rowPattern = regexp.MustCompile(`^[01]{5}$`)

// Encode renders ks as a fire message: version, grid width (pitch levels),
// grid height (notes), then one row per note in fixed order where each
// character is '1' if that (note, pitch) key is held.
func Encode(ks keys.KeySet) []byte {
	var b strings.Builder

	b.WriteString(Version)
	b.WriteByte('\n')
	b.WriteString(strconv.Itoa(keys.NumPitches))
	b.WriteByte('\n')
	b.WriteString(strconv.Itoa(len(keys.Notes)))

	for _, n := range keys.Notes {
		b.WriteByte('\n')
		for _, p := range keys.Pitches {
			if ks.Has(keys.Key{Note: n, Pitch: p}) {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
	}

	return []byte(b.String())
}

// Validate applies the receiver's checks to msg: exactly 8 lines, version 0,
// width and height 5, and five rows of five '0'/'1' characters. Trailing
// whitespace after the last row is tolerated.
func Validate(msg []byte) error {
	_, err := Decode(msg)
	return err
}

// Decode validates msg and returns the key set it carries.
func Decode(msg []byte) (keys.KeySet, error) {
	lines := strings.Split(strings.TrimRight(string(msg), " \t\r\n"), "\n")
	if len(lines) != totalLines {
		return nil, fmt.Errorf("%w: expected %d lines separated by linefeeds, got %d", ErrMalformed, totalLines, len(lines))
	}
	if lines[0] != Version {
		return nil, fmt.Errorf("%w: expected version %s, got %q", ErrMalformed, Version, lines[0])
	}
	if want := strconv.Itoa(keys.NumPitches); lines[1] != want {
		return nil, fmt.Errorf("%w: expected width %s, got %q", ErrMalformed, want, lines[1])
	}
	if want := strconv.Itoa(len(keys.Notes)); lines[2] != want {
		return nil, fmt.Errorf("%w: expected height %s, got %q", ErrMalformed, want, lines[2])
	}

	ks := keys.NewKeySet()
	for i, row := range lines[headerLines:] {
		if !rowPattern.MatchString(row) {
			return nil, fmt.Errorf("%w: line %d: invalid pattern %q, must be 5 characters of '1' or '0'", ErrMalformed, i+headerLines+1, row)
		}
		for p, c := range row {
			if c == '1' {
				ks[keys.Key{Note: keys.Notes[i], Pitch: keys.PitchLevel(p)}] = struct{}{}
			}
		}
	}
	return ks, nil
}
