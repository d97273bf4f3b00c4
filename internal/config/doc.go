// Package config loads the client's TOML configuration and the TUI's
// preferences file.
//
// # Configuration Discovery
//
// Load follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/webhelper/config.toml
//  3. If the file doesn't exist, fall back to Default()
//  4. Fields that are missing or blank keep their defaults
//
// WEBHELPER_LOG_LEVEL, WEBHELPER_LOG_FILE and WEBHELPER_SSE_BIND override the
// file. The binary loads a .env file before calling Load, so those variables
// may also come from there.
//
// # TOML Format
//
//	[companion]
//	host = "127.0.0.1"
//	secure_ports = [4370, 4379]
//	insecure_ports = [4380, 4389]
//	return_after_seconds = 60
//	restart_errors = ["Invalid OAuth token", "Expired OAuth token", "Invalid Csrf token"]
//
//	[intervals]          # milliseconds
//	check_running = 5000
//	check_shutdown = 2000
//	position_tick = 250
//	shutdown_retries = 15
//
//	[behavior]
//	no_track = "ignore"  # ignore | error | fatal
//	wait_for_player = true
//
//	[log]
//	level = "info"
//	file = "~/.local/state/webhelper/webhelper.log"
//
//	[sse]
//	bind = "127.0.0.1:7488"
//
// # Preferences
//
// LoadPrefs never fails: an unreadable or invalid prefs.toml yields the
// default theme. SavePrefs is called when the user cycles themes.
package config
