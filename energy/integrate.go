// Package energy integrates a time/power log into total energy with the
// trapezoidal rule.
//
// The log is expected to cover a single day with increasing timestamps.
// Timestamps are reduced to seconds since midnight, so a log that crosses
// midnight produces a negative interval. That interval is integrated as it
// is and reported as a WarnNonMonotonic warning rather than corrected.
package energy

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrFileOpen is returned by IntegrateFile when the log cannot be opened.
var ErrFileOpen = errors.New("energy: cannot open file")

// WarningKind classifies a suspicious but usable pair of samples.
type WarningKind int

const (
	// WarnNonMonotonic marks a pair whose second timestamp is not after the first.
	WarnNonMonotonic WarningKind = iota
	// WarnDateChanged marks a sample whose date differs from the first sample's.
	WarnDateChanged
)

func (k WarningKind) String() string {
	switch k {
	case WarnNonMonotonic:
		return "non-monotonic-time"
	case WarnDateChanged:
		return "date-changed"
	}
	return fmt.Sprintf("WarningKind(%d)", int(k))
}

// Warning is attached to the line of the later sample of a pair.
type Warning struct {
	Line    int
	Kind    WarningKind
	Message string
}

// Pair is one trapezium between two consecutive samples.
type Pair struct {
	From, To  Sample
	DeltaTime float64 // seconds
	MeanPower float64 // watts
	Energy    float64 // joules
}

// Result is the outcome of integrating a log.
type Result struct {
	Header      string // optional first line that held no sample
	HeaderLine  int
	First, Last Sample
	Samples     int
	Pairs       int
	TotalEnergy float64 // joules
	Skipped     []*LineError
	Warnings    []Warning
}

// Integrator accumulates trapezia one sample at a time.
type Integrator struct {
	res     Result
	started bool
	prev    Sample
}

// Add feeds the next sample. It returns the trapezium closed by s, or false
// for the first sample, which only opens the series.
func (in *Integrator) Add(s Sample) (Pair, bool) {
	in.res.Samples++
	in.res.Last = s
	if !in.started {
		in.started = true
		in.res.First = s
		in.prev = s
		return Pair{}, false
	}

	p := Pair{From: in.prev, To: s}
	p.DeltaTime = s.Seconds - in.prev.Seconds
	p.MeanPower = 0.5 * (in.prev.Power + s.Power)
	p.Energy = p.DeltaTime * p.MeanPower

	if p.DeltaTime <= 0 {
		in.res.Warnings = append(in.res.Warnings, Warning{
			Line:    s.Line,
			Kind:    WarnNonMonotonic,
			Message: fmt.Sprintf("time goes from %.3f s to %.3f s since midnight; log may span midnight", in.prev.Seconds, s.Seconds),
		})
	}
	if s.Date != in.res.First.Date {
		in.res.Warnings = append(in.res.Warnings, Warning{
			Line:    s.Line,
			Kind:    WarnDateChanged,
			Message: fmt.Sprintf("date changed from %s to %s", in.res.First.Date, s.Date),
		})
	}

	in.res.Pairs++
	in.res.TotalEnergy += p.Energy
	in.prev = s
	return p, true
}

// Result returns a copy of the totals so far.
func (in *Integrator) Result() *Result {
	res := in.res
	return &res
}

// Option configures Integrate.
type Option func(*options)

type options struct {
	trace  io.Writer
	strict bool
}

// WithTrace writes the start/finish/partial energy of every pair to w.
func WithTrace(w io.Writer) Option {
	return func(o *options) { o.trace = w }
}

// WithStrict stops at the first truncated or corrupt line and returns its
// *LineError. Blank lines, comments and the header are still tolerated.
func WithStrict() Option {
	return func(o *options) { o.strict = true }
}

// Integrate reads samples from r and integrates them. Lines that hold no
// sample are collected in Result.Skipped with their Kind. The first
// non-blank, non-comment line before any sample is taken as the header,
// unless it carries a clock in its second field: a malformed sample is
// never mistaken for a header.
func Integrate(r io.Reader, opts ...Option) (*Result, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	var in Integrator
	var header string
	var headerLine int
	var skipped []*LineError

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		s, err := ParseLine(text)
		if err != nil {
			var le *LineError
			if !errors.As(err, &le) {
				return nil, err
			}
			le.Line = line
			if (le.Kind == KindTruncated || le.Kind == KindCorrupt) && !in.started && headerLine == 0 && !looksLikeSample(text) {
				header, headerLine = text, line
				if o.trace != nil {
					fmt.Fprintf(o.trace, "header: %s\n", text)
				}
				continue
			}
			if o.strict && (le.Kind == KindTruncated || le.Kind == KindCorrupt) {
				return nil, le
			}
			skipped = append(skipped, le)
			continue
		}
		s.Line = line

		p, ok := in.Add(s)
		if o.trace == nil {
			continue
		}
		if !ok {
			fmt.Fprintf(o.trace, "date: %s\tsecs since midnight = %f\tpower=%f W\n", s.Date, s.Seconds, s.Power)
			continue
		}
		tracePair(o.trace, p, in.res.TotalEnergy)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("energy: reading line %d: %w", line+1, err)
	}

	res := in.Result()
	res.Header, res.HeaderLine = header, headerLine
	res.Skipped = skipped
	return res, nil
}

func tracePair(w io.Writer, p Pair, total float64) {
	fmt.Fprintf(w, "START: timeSecs=%f, power=%f W\n", p.From.Seconds, p.From.Power)
	fmt.Fprintf(w, "FINISH: timeSecs=%f, power=%f W\n", p.To.Seconds, p.To.Power)
	fmt.Fprintf(w, "Delta time=%f, mean power=%f Watts ==> partial energy: %f Joules\n", p.DeltaTime, p.MeanPower, p.Energy)
	fmt.Fprintf(w, "Total energy so far: %f Joules\n---\n", total)
}

// IntegrateFile opens path and integrates it.
func IntegrateFile(path string, opts ...Option) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrFileOpen, path, err)
	}
	defer f.Close()
	return Integrate(f, opts...)
}
