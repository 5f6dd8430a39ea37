// Package history keeps an SQLite audit log of resolution attempts: what was
// asked for, how it ended, and how long it took.
//
// The log is write-mostly and never consulted when resolving; cached manifests
// live only in memory. Open applies WAL and busy_timeout pragmas and writes
// retry briefly on SQLITE_BUSY.
package history
