package process

import (
	"os"
	"path/filepath"
	"runtime"
)

// PlayerNames are the executable names of the desktop player.
var PlayerNames = []string{"Spotify.exe", "Spotify", "spotify"}

// HelperNames are the executable names of the companion.
var HelperNames = []string{"SpotifyWebHelper.exe", "SpotifyWebHelper"}

// HelperAutoStarts reports whether the player launches the companion itself,
// in which case there is never anything to spawn.
func HelperAutoStarts() bool {
	return runtime.GOOS == "linux"
}

// DefaultHelperPath returns the conventional install location of the
// companion for this OS, or "" when there is none.
func DefaultHelperPath() string {
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "Spotify", "SpotifyWebHelper.exe")
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		return filepath.Join(home, "AppData", "Roaming", "Spotify", "SpotifyWebHelper.exe")
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		return filepath.Join(home, "Library", "Application Support", "Spotify", "SpotifyWebHelper")
	default:
		return ""
	}
}
