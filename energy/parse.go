package energy

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedLine matches every *LineError via errors.Is.
var ErrMalformedLine = errors.New("energy: malformed line")

// Kind classifies a line that does not hold a sample.
type Kind int

const (
	// KindBlank is an empty or whitespace-only line.
	KindBlank Kind = iota
	// KindComment is a line whose first non-space character is '#'.
	KindComment
	// KindTruncated has fewer than the three required fields.
	KindTruncated
	// KindCorrupt has three or more fields but the time or power does not parse.
	KindCorrupt
)

var kindNames = [...]string{
	KindBlank:     "blank",
	KindComment:   "comment",
	KindTruncated: "truncated",
	KindCorrupt:   "corrupt",
}

func (k Kind) String() string {
	if k >= KindBlank && k <= KindCorrupt {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// LineError reports why a line was not used as a sample.
type LineError struct {
	Line int // 1-based line number, 0 when unknown
	Kind Kind
	Text string
	Err  error // underlying parse error, if any
}

func (e *LineError) Error() string {
	msg := fmt.Sprintf("line %d: %s line", e.Line, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is makes errors.Is(err, ErrMalformedLine) true for every LineError.
func (e *LineError) Is(target error) bool {
	return target == ErrMalformedLine
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Sample is one (time, power) reading.
type Sample struct {
	Line    int
	Date    string
	Seconds float64 // seconds since midnight
	Power   float64 // watts
}

// ParseLine reads "<date> <HH:MM:SS.sss> <power> ..." and ignores any further
// fields. A line that holds no sample comes back as a *LineError.
func ParseLine(text string) (Sample, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Sample{}, &LineError{Kind: KindBlank, Text: text}
	}
	if strings.HasPrefix(trimmed, "#") {
		return Sample{}, &LineError{Kind: KindComment, Text: text}
	}

	fields := strings.Fields(trimmed)
	if len(fields) < 3 {
		return Sample{}, &LineError{
			Kind: KindTruncated,
			Text: text,
			Err:  fmt.Errorf("want date, time and power, got %d field(s)", len(fields)),
		}
	}

	secs, err := parseClock(fields[1])
	if err != nil {
		return Sample{}, &LineError{Kind: KindCorrupt, Text: text, Err: err}
	}
	power, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return Sample{}, &LineError{Kind: KindCorrupt, Text: text, Err: fmt.Errorf("power %q: %w", fields[2], err)}
	}
	if math.IsNaN(power) || math.IsInf(power, 0) {
		return Sample{}, &LineError{Kind: KindCorrupt, Text: text, Err: fmt.Errorf("power %q is not finite", fields[2])}
	}
	return Sample{Date: fields[0], Seconds: secs, Power: power}, nil
}

// looksLikeSample reports whether text carries a valid HH:MM:SS clock in its
// second field, i.e. it was meant as a sample even if it failed to parse.
func looksLikeSample(text string) bool {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return false
	}
	_, err := parseClock(fields[1])
	return err == nil
}

// parseClock converts HH:MM:SS(.sss) to seconds since midnight as
// hour*3600 + minute*60 + seconds.
func parseClock(s string) (float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("time %q: want HH:MM:SS", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("time %q: hour: %w", s, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("time %q: minute: %w", s, err)
	}
	sec, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("time %q: seconds: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || sec < 0 || sec >= 61 {
		return 0, fmt.Errorf("time %q: out of range", s)
	}
	return float64(hour)*3600 + float64(minute)*60 + sec, nil
}
