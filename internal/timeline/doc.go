// Package timeline defines the declarative edit model: tracks, clips, and
// output settings, plus the project snapshot persisted per session.
//
// Tracks form a fixed canonical set created with every session. Track order
// is load-bearing: lower-order video tracks are composited first and later
// ones overlay on top of them.
package timeline
