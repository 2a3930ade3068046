// Package history persists an operations journal in SQLite.
//
// Every long-running mutation (upload ingest, silence removal, render) is
// recorded with its session, progress, and outcome so operators can inspect
// what the service did after the fact. Sessions themselves are disposable
// directory trees; the journal is the only durable record and survives
// session reaping.
package history
