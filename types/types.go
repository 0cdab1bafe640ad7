package types

import "fmt"

// Canonical geometry of every stored image.
const (
	CanonicalChannels = 1
	CanonicalHeight   = 28
	CanonicalWidth    = 28
	CanonicalPixels   = CanonicalChannels * CanonicalHeight * CanonicalWidth
)

// NoLabel is the sentinel for a character outside the active label set.
// Records carrying it are never stored.
const NoLabel = -1

// LabelSet selects which characters are accepted as classes for a run.
type LabelSet int

const (
	Digits LabelSet = iota
	Uppercase
	Lowercase
)

func (s LabelSet) String() string {
	switch s {
	case Digits:
		return "digits"
	case Uppercase:
		return "uppercase"
	case Lowercase:
		return "lowercase"
	default:
		return fmt.Sprintf("LabelSet(%d)", int(s))
	}
}

// Classes returns the number of classes in the set.
func (s LabelSet) Classes() int {
	if s == Digits {
		return 10
	}
	return 26
}

// ParseLabelSet maps the command line letter to a label set:
// d|D digits, c|C capital letters, s|S small letters.
func ParseLabelSet(arg string) (LabelSet, error) {
	switch arg {
	case "d", "D":
		return Digits, nil
	case "c", "C":
		return Uppercase, nil
	case "s", "S":
		return Lowercase, nil
	}
	return 0, fmt.Errorf("unknown label set %q (want d, c or s)", arg)
}

// Record is one (image, label) pair bound for the dataset store.
type Record struct {
	Channels int
	Height   int
	Width    int
	Pixels   []byte // row-major, Channels*Height*Width bytes
	Label    int
}

// NewRecord builds a canonical single channel 28x28 record.
func NewRecord(pixels []byte, label int) Record {
	return Record{
		Channels: CanonicalChannels,
		Height:   CanonicalHeight,
		Width:    CanonicalWidth,
		Pixels:   pixels,
		Label:    label,
	}
}

// Outcome is the terminal state of one file within a run.
type Outcome int

const (
	Accepted Outcome = iota
	SkippedExtension
	SkippedLabel
	SkippedDecode
	SkippedNormalize
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case SkippedExtension:
		return "wrong_extension"
	case SkippedLabel:
		return "label_reject"
	case SkippedDecode:
		return "decode_failure"
	case SkippedNormalize:
		return "normalize_failure"
	default:
		return "unknown"
	}
}

// Outcomes lists every terminal state, accepted first.
var Outcomes = [...]Outcome{Accepted, SkippedExtension, SkippedLabel, SkippedDecode, SkippedNormalize}
