// Package session owns the lifecycle of editing sessions.
//
// A session is a directory tree under the sessions root holding uploaded
// assets, the persisted project snapshot, and rendered outputs. The
// Registry is the single owner of the in-memory session map: it restores
// sessions from disk at startup, serializes mutating operations per
// session, and reaps idle sessions on a fixed interval. Cross-session
// operations never occur, so one lock per session is the unit of mutual
// exclusion; operations on different sessions proceed in parallel.
package session
