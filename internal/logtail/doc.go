// Package logtail reads the last lines of the client's log file for the TUI
// logs view.
//
// Tail keeps a ring buffer of maxLines entries, so memory stays bounded no
// matter how large the file has grown. ReadFile returns nil, nil when the log
// does not exist yet. Level pulls the level attribute out of a line written
// by slog's text handler so the view can color it.
package logtail
