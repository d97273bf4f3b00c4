// Package app is the composition root. Run loads the configuration, builds
// the slog logger, wires the companion client, locator, process monitor and
// player, and attaches the listeners: the state store always, the SSE
// broadcaster when [sse] bind is set, and an event logger in headless mode.
//
// The player runs in its own goroutine. In TUI mode the terminal belongs to
// Bubble Tea and logs go to the configured file; quitting the UI cancels the
// player. In headless mode Run returns when the context is cancelled or the
// player stops on a fatal error.
package app
