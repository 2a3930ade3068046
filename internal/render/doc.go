// Package render compiles a timeline snapshot into a single ffmpeg
// invocation and produces one output file.
//
// The compositing pipeline is modelled as a typed filter graph: chains of
// named stages over labelled pads. The graph is built entirely from the
// timeline data model and serialized to ffmpeg's -filter_complex grammar
// only at the invocation boundary, so the one place that has to match the
// external tool's syntax is the serializer.
//
// Video clips are composited bottom-up in track order: the base is a solid
// color canvas, and each clip is trimmed, scaled, and overlaid with a
// time-window enable expression so it is only visible between its timeline
// start and end. Audio clips are trimmed, delay-shifted to their timeline
// position, and mixed into a single output stream.
package render
