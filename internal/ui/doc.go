// Package ui provides the terminal interface for webhelper.
//
// The UI is a Bubble Tea program with three views:
//
//   - Now Playing: the current track, a progress bar driven by the engine's
//     simulated position, and the shuffle, repeat and volume flags
//   - Events: the notification history recorded by state.Store
//   - Logs: the tail of the configured log file, colored by slog level
//
// The model polls the store and the player on a short tick rather than
// subscribing, so engine goroutines never block on rendering. Playback
// commands run as tea.Cmds with their own timeout and report back through
// commandResultMsg; a failed command shows in the header until the next one.
//
// Keys: Space toggles play and pause, left and right seek ten seconds, 1/2/3
// or Tab switch views, T cycles the theme (saved to prefs.toml), ? shows help
// and q quits.
package ui
