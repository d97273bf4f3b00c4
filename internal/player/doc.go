// Package player keeps a session with the companion alive and reconstructs
// discrete playback events from successive status snapshots.
//
// # Lifecycle
//
// Run drives a phase state machine:
//
//	Initializing -> Authenticating -> Listening -> Closing | Reconnecting -> Initializing
//
// Initializing optionally waits for the player, ensures the companion is
// running and locates its port. Authenticating fetches an OAuth and a CSRF
// token and performs a short-hold status fetch. Listening keeps exactly one
// long-poll in flight. A transport failure while the player is believed to be
// running moves to Closing, which follows the player shutting down; any other
// recoverable failure moves straight to Reconnecting. Reconnecting discards
// the session, snapshot, position and simulator together and bumps the
// generation so results from older requests are ignored.
//
// Helper launch failures, malformed responses and the fatal no-track policy
// stop Run with an error.
//
// # Notifications
//
// For the first snapshot of a session: ready, status-will-change, and when
// playing, play followed by track-will-change. For later snapshots, in order:
// status-will-change, track-will-change, play or end or pause, seek.
//
// # Position
//
// Between snapshots the local position advances on a fixed tick while
// playing. A snapshot whose position differs from the local one by more than
// two ticks raises seek.
package player
