// Package silence detects low-amplitude intervals in a media file and
// removes them by re-cutting the surviving segments.
//
// Detection runs ffmpeg's silencedetect filter over the whole file and pairs
// silence_start/silence_end markers from the diagnostic stream. The
// complementary keep segments are then trimmed and concatenated for video
// and audio together in a single filter-graph pass, which keeps both streams
// frame-aligned. The original file is only replaced after the new output is
// verified to contain both a video and an audio stream.
package silence
