// Package labels derives class indices from the character encoded in an
// image's file name.
package labels

import (
	"path/filepath"
	"strings"

	"bmpconverter/types"

	"github.com/pkg/errors"
)

var (
	// ErrMalformedName is returned when a file name has fewer than two
	// underscore separated segments.
	ErrMalformedName = errors.New("malformed file name")
	// ErrRejected is returned when the label character is outside the label set.
	ErrRejected = errors.New("label not in label set")
)

// Classify maps a raw character to its class index within set.
// ok is false for any byte outside the set.
func Classify(b byte, set types.LabelSet) (class int, ok bool) {
	var first, last byte
	switch set {
	case types.Digits:
		first, last = '0', '9'
	case types.Uppercase:
		first, last = 'A', 'Z'
	case types.Lowercase:
		first, last = 'a', 'z'
	default:
		return types.NoLabel, false
	}
	if b < first || b > last {
		return types.NoLabel, false
	}
	return int(b - first), true
}

// LabelByte extracts the label character from a file name such as
// "img_0_7_x.bmp": the name is split on '_' with runs of separators
// collapsed, and the first byte of the second to last segment is returned.
func LabelByte(path string) (byte, error) {
	name := filepath.Base(path)
	segments := strings.FieldsFunc(name, func(r rune) bool { return r == '_' })
	if len(segments) < 2 {
		return 0, errors.Wrapf(ErrMalformedName, "%s", name)
	}
	return segments[len(segments)-2][0], nil
}

// FromFilename returns the class index encoded in path for the given set.
func FromFilename(path string, set types.LabelSet) (int, error) {
	b, err := LabelByte(path)
	if err != nil {
		return types.NoLabel, err
	}
	class, ok := Classify(b, set)
	if !ok {
		return types.NoLabel, errors.Wrapf(ErrRejected, "%q under %s", b, set)
	}
	return class, nil
}
