package statement

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ErrUnknownFormat is matched by every *UnknownFormatError.
var ErrUnknownFormat = errors.New("unknown statement format")

// maxSuggestDistance bounds the edit distance for "did you mean" hints.
const maxSuggestDistance = 3

// UnknownFormatError reports a header row no registered format accepts, measured against the
// closest format.
type UnknownFormatError struct {
	Header  []string
	Closest string   // name of the format with the fewest missing headers, if any
	Missing []string // headers Closest requires that the file lacks
	Extra   []string // file headers Closest does not know
	// Suggestions maps a missing header to the file header that looks like a typo of it.
	Suggestions map[string]string
}

func (e *UnknownFormatError) Error() string {
	var b strings.Builder
	b.WriteString(ErrUnknownFormat.Error())
	if e.Closest == "" {
		return b.String()
	}
	fmt.Fprintf(&b, ": closest is %s", e.Closest)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ", missing %s", strings.Join(quoteAll(e.Missing), ", "))
	}
	if len(e.Extra) > 0 {
		fmt.Fprintf(&b, ", unexpected %s", strings.Join(quoteAll(e.Extra), ", "))
	}
	for _, m := range e.Missing {
		if s, ok := e.Suggestions[m]; ok {
			fmt.Fprintf(&b, " (%q looks like %q)", s, m)
		}
	}
	return b.String()
}

func (e *UnknownFormatError) Is(target error) bool { return target == ErrUnknownFormat }

// Match is the outcome of a successful detection.
type Match struct {
	Format Format
	// Tied names other formats that matched with an equally large header set. The
	// earliest-registered one wins.
	Tied []string
}

// Detect picks the format whose required headers are all present in header. When several match,
// the one with the most required headers wins; ties go to registration order. Extra columns in
// the file never prevent a match.
func (r *Registry) Detect(header []string) (Match, error) {
	present := headerKeys(header)

	best := -1
	var tied []string
	for i, f := range r.formats {
		if !containsAll(present, f.headerSet()) {
			continue
		}
		switch {
		case best < 0 || len(f.Headers) > len(r.formats[best].Headers):
			best = i
			tied = nil
		case len(f.Headers) == len(r.formats[best].Headers):
			tied = append(tied, f.Name)
		}
	}
	if best >= 0 {
		return Match{Format: r.formats[best], Tied: tied}, nil
	}
	return Match{}, r.explain(header, present)
}

func containsAll(present, required map[string]bool) bool {
	for k := range required {
		if !present[k] {
			return false
		}
	}
	return true
}

func (r *Registry) explain(header []string, present map[string]bool) *UnknownFormatError {
	e := &UnknownFormatError{Header: append([]string(nil), header...)}
	if len(r.formats) == 0 {
		return e
	}

	closest, fewest := 0, -1
	for i, f := range r.formats {
		missing := 0
		for k := range f.headerSet() {
			if !present[k] {
				missing++
			}
		}
		if fewest < 0 || missing < fewest {
			closest, fewest = i, missing
		}
	}

	return mismatch(r.formats[closest], header, present)
}

// CheckHeader reports whether header carries every column f requires. A mismatch is an
// *UnknownFormatError measured against f.
func CheckHeader(f Format, header []string) error {
	present := headerKeys(header)
	if containsAll(present, f.headerSet()) {
		return nil
	}
	return mismatch(f, header, present)
}

func mismatch(f Format, header []string, present map[string]bool) *UnknownFormatError {
	e := &UnknownFormatError{Header: append([]string(nil), header...), Closest: f.Name}
	want := f.headerSet()
	for _, h := range f.Headers {
		if !present[headerKey(h)] {
			e.Missing = append(e.Missing, h)
		}
	}
	for _, h := range header {
		if k := headerKey(h); k != "" && !want[k] {
			e.Extra = append(e.Extra, cleanHeader(h))
		}
	}
	e.Suggestions = suggest(e.Missing, e.Extra)
	return e
}

func headerKeys(header []string) map[string]bool {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		if k := headerKey(h); k != "" {
			present[k] = true
		}
	}
	return present
}

// suggest pairs each missing header with the nearest extra header within maxSuggestDistance.
func suggest(missing, extra []string) map[string]string {
	out := make(map[string]string)
	for _, m := range missing {
		mk := headerKey(m)
		bestDist := maxSuggestDistance + 1
		var bestHeader string
		for _, x := range extra {
			d := levenshtein.ComputeDistance(mk, headerKey(x))
			if d < bestDist {
				bestDist, bestHeader = d, x
			}
		}
		if bestHeader != "" {
			out[m] = bestHeader
		}
	}
	return out
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	sort.Strings(out)
	return out
}
