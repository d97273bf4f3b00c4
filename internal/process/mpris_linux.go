//go:build linux

package process

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const mprisPrefix = "org.mpris.MediaPlayer2."

// MPRISLister checks whether a media player owns its MPRIS bus name.
type MPRISLister struct {
	busName string
}

// NewMPRISLister watches org.mpris.MediaPlayer2.<player>.
func NewMPRISLister(player string) Lister {
	return &MPRISLister{busName: mprisPrefix + player}
}

func (l *MPRISLister) Running(ctx context.Context) (bool, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return false, fmt.Errorf("connect to session bus: %w", err)
	}
	var owned bool
	call := conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, l.busName)
	if err := call.Store(&owned); err != nil {
		return false, fmt.Errorf("query %s owner: %w", l.busName, err)
	}
	return owned, nil
}
