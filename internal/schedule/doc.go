// Package schedule holds the pure state transitions for Sunday dinners:
// availability toggles, confirmation with host rotation, meal logs and the
// ranking of upcoming dates.
//
// Every function takes an explicit snapshot and returns a new value; none of
// them touch storage. Persisting the result atomically is the caller's job.
package schedule
