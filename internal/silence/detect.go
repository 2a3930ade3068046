package silence

import (
	"regexp"
	"strconv"
)

// Period is a detected stretch of silence, in seconds from the start of the
// file.
type Period struct {
	Start float64
	End   float64
}

// Duration returns the length of the period in seconds.
func (p Period) Duration() float64 {
	return p.End - p.Start
}

// Segment is a stretch of the file that survives silence removal.
type Segment struct {
	Start float64
	End   float64
}

// Duration returns the length of the segment in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

var (
	silenceStartPattern = regexp.MustCompile(`silence_start:\s*(-?\d+(?:\.\d+)?)`)
	silenceEndPattern   = regexp.MustCompile(`silence_end:\s*(-?\d+(?:\.\d+)?)`)
)

// markerParser pairs silence_start and silence_end lines emitted by the
// silencedetect filter. Markers arrive interleaved with ordinary encoder
// chatter, so each line is matched independently.
type markerParser struct {
	periods []Period
	open    *float64
}

func (p *markerParser) feed(line string) {
	if m := silenceStartPattern.FindStringSubmatch(line); m != nil {
		start, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return
		}
		if start < 0 {
			start = 0
		}
		p.open = &start
		return
	}
	if m := silenceEndPattern.FindStringSubmatch(line); m != nil {
		if p.open == nil {
			return
		}
		end, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return
		}
		if end > *p.open {
			p.periods = append(p.periods, Period{Start: *p.open, End: end})
		}
		p.open = nil
	}
}

// finish returns the completed periods. A silence_start with no matching
// silence_end (silence running into end of file) is discarded; the trailing
// keep segment absorbs it.
func (p *markerParser) finish() []Period {
	p.open = nil
	return p.periods
}

// KeepSegments computes the complement of the silence periods over a file of
// the given total duration. Segments shorter than minSegment are dropped so
// the cut list never produces sub-frame slivers.
func KeepSegments(periods []Period, total, minSegment float64) []Segment {
	if total <= 0 {
		return nil
	}
	segments := make([]Segment, 0, len(periods)+1)
	cursor := 0.0
	for _, period := range periods {
		if period.Start > cursor {
			segments = append(segments, Segment{Start: cursor, End: period.Start})
		}
		if period.End > cursor {
			cursor = period.End
		}
	}
	if cursor < total {
		segments = append(segments, Segment{Start: cursor, End: total})
	}
	kept := segments[:0]
	for _, segment := range segments {
		if segment.Duration() >= minSegment {
			kept = append(kept, segment)
		}
	}
	return kept
}
