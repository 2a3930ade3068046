package render

import (
	"fmt"
	"strings"

	"vidstudio/internal/media/ffmpeg"
)

// Arg is a single key=value filter argument. Keys may be empty for
// positional arguments.
type Arg struct {
	Key   string
	Value string
}

// Filter is one typed filter stage: a name plus ordered arguments.
type Filter struct {
	Name string
	Args []Arg
}

func (f Filter) encode(b *strings.Builder) {
	b.WriteString(f.Name)
	for i, arg := range f.Args {
		if i == 0 {
			b.WriteByte('=')
		} else {
			b.WriteByte(':')
		}
		if arg.Key != "" {
			b.WriteString(arg.Key)
			b.WriteByte('=')
		}
		b.WriteString(quoteArg(arg.Value))
	}
}

// quoteArg wraps values containing filter-graph metacharacters in single
// quotes so expressions like between(t,2,4) survive the graph parser.
func quoteArg(v string) string {
	if strings.ContainsAny(v, ",:[];") {
		return "'" + v + "'"
	}
	return v
}

// Chain applies a sequence of filters from zero or more input pads to one
// or more output pads.
type Chain struct {
	Inputs  []string
	Filters []Filter
	Outputs []string
}

func (c Chain) encode(b *strings.Builder) {
	for _, in := range c.Inputs {
		b.WriteByte('[')
		b.WriteString(in)
		b.WriteByte(']')
	}
	for i, f := range c.Filters {
		if i > 0 {
			b.WriteByte(',')
		}
		f.encode(b)
	}
	for _, out := range c.Outputs {
		b.WriteByte('[')
		b.WriteString(out)
		b.WriteByte(']')
	}
}

// Graph is an ordered list of chains forming one -filter_complex argument.
type Graph struct {
	chains []Chain
}

// Append adds a chain to the graph.
func (g *Graph) Append(chain Chain) {
	g.chains = append(g.chains, chain)
}

// Len reports the number of chains in the graph.
func (g *Graph) Len() int {
	return len(g.chains)
}

// String serializes the graph to ffmpeg's filter-graph grammar.
func (g *Graph) String() string {
	var b strings.Builder
	for i, chain := range g.chains {
		if i > 0 {
			b.WriteByte(';')
		}
		chain.encode(&b)
	}
	return b.String()
}

// Stage constructors. Every filter used by the compiler has a typed
// constructor so argument names live in exactly one place.

func colorSource(color string, width, height, frameRate int, duration float64) Filter {
	return Filter{Name: "color", Args: []Arg{
		{Key: "c", Value: color},
		{Key: "s", Value: fmt.Sprintf("%dx%d", width, height)},
		{Key: "r", Value: fmt.Sprintf("%d", frameRate)},
		{Key: "d", Value: ffmpeg.FormatSeconds(duration)},
	}}
}

func trim(start, end float64) Filter {
	return Filter{Name: "trim", Args: []Arg{
		{Key: "start", Value: ffmpeg.FormatSeconds(start)},
		{Key: "end", Value: ffmpeg.FormatSeconds(end)},
	}}
}

func atrim(start, end float64) Filter {
	return Filter{Name: "atrim", Args: []Arg{
		{Key: "start", Value: ffmpeg.FormatSeconds(start)},
		{Key: "end", Value: ffmpeg.FormatSeconds(end)},
	}}
}

// setPTSShift resets timestamps and shifts frames to the clip's timeline
// position so the overlay enable window lines up with actual frames.
func setPTSShift(offset float64) Filter {
	return Filter{Name: "setpts", Args: []Arg{
		{Value: fmt.Sprintf("PTS-STARTPTS+%s/TB", ffmpeg.FormatSeconds(offset))},
	}}
}

func asetPTS() Filter {
	return Filter{Name: "asetpts", Args: []Arg{{Value: "PTS-STARTPTS"}}}
}

func scaleFit(width, height int) Filter {
	return Filter{Name: "scale", Args: []Arg{
		{Value: fmt.Sprintf("%d", width)},
		{Value: fmt.Sprintf("%d", height)},
		{Key: "force_original_aspect_ratio", Value: "decrease"},
	}}
}

func scaleCover(width, height int) Filter {
	return Filter{Name: "scale", Args: []Arg{
		{Value: fmt.Sprintf("%d", width)},
		{Value: fmt.Sprintf("%d", height)},
		{Key: "force_original_aspect_ratio", Value: "increase"},
	}}
}

func cropCenter(width, height int) Filter {
	return Filter{Name: "crop", Args: []Arg{
		{Value: fmt.Sprintf("%d", width)},
		{Value: fmt.Sprintf("%d", height)},
	}}
}

func padCenter(width, height int) Filter {
	return Filter{Name: "pad", Args: []Arg{
		{Value: fmt.Sprintf("%d", width)},
		{Value: fmt.Sprintf("%d", height)},
		{Value: "(ow-iw)/2"},
		{Value: "(oh-ih)/2"},
	}}
}

func scaleFactor(factor float64) Filter {
	return Filter{Name: "scale", Args: []Arg{
		{Value: fmt.Sprintf("iw*%s", ffmpeg.FormatSeconds(factor))},
		{Value: fmt.Sprintf("ih*%s", ffmpeg.FormatSeconds(factor))},
	}}
}

func pixelFormat(name string) Filter {
	return Filter{Name: "format", Args: []Arg{{Value: name}}}
}

func opacity(alpha float64) Filter {
	return Filter{Name: "colorchannelmixer", Args: []Arg{
		{Key: "aa", Value: ffmpeg.FormatSeconds(alpha)},
	}}
}

// overlayWindow composites the second input over the first at (x, y),
// visible only while the timeline clock is inside [start, end].
func overlayWindow(x, y string, start, end float64) Filter {
	enable := fmt.Sprintf("between(t,%s,%s)", ffmpeg.FormatSeconds(start), ffmpeg.FormatSeconds(end))
	return Filter{Name: "overlay", Args: []Arg{
		{Key: "x", Value: x},
		{Key: "y", Value: y},
		{Key: "enable", Value: enable},
	}}
}

// adelay shifts all channels of an audio stream by the same offset so the
// clip starts at its timeline position.
func adelay(offset float64) Filter {
	ms := int64(offset * 1000)
	if ms < 0 {
		ms = 0
	}
	return Filter{Name: "adelay", Args: []Arg{
		{Key: "delays", Value: fmt.Sprintf("%d", ms)},
		{Key: "all", Value: "1"},
	}}
}

func amix(inputs int) Filter {
	return Filter{Name: "amix", Args: []Arg{
		{Key: "inputs", Value: fmt.Sprintf("%d", inputs)},
		{Key: "duration", Value: "longest"},
		{Key: "normalize", Value: "0"},
	}}
}
