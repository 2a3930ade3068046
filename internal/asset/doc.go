// Package asset tracks the media files belonging to one editing session.
//
// Each session owns an assets directory; the Store keeps in-memory metadata
// for every file in it and persists a JSON snapshot (assets.json) beside the
// directory after every mutation. Absolute paths are never persisted; they
// are recomputed from the directory layout on restore so a session tree can
// be relocated. On restore the directory scan is authoritative for file
// size and presence; the snapshot contributes fields the filesystem cannot
// know (type overrides, duration, dimensions, provenance).
package asset
