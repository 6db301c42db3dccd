// Package livesync keeps concurrent writers and live readers consistent.
//
// KeyedMutex serializes read-modify-write cycles per document key. Hub
// delivers committed changes to subscribers in the order they were
// published, and View rebuilds current state from a snapshot plus the
// event stream.
package livesync
