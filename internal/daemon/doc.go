// Package daemon runs the long-lived vidstudio service: it restores
// sessions from disk, keeps the idle-session sweeper running, and enforces
// single-instance execution with a file lock.
package daemon
