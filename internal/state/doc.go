// Package state keeps a thread-safe record of player notifications for the UI.
//
// The Store is registered as a player.Listener. The player's goroutines write
// to it and the UI refresh loop reads copies via Snapshot, so rendering never
// touches engine state directly.
//
// Snapshot carries the most recent status, a bounded history of
// notifications (status-will-change is folded into Status rather than
// recorded, since it fires on every poll), and error bookkeeping:
// LastError and ConsecutiveErrors reset on the next good status.
package state
