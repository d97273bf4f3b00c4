//go:build !linux

package process

import "context"

// NewMPRISLister returns a lister that never reports running; MPRIS only
// exists on Linux desktops.
func NewMPRISLister(string) Lister {
	return ListerFunc(func(context.Context) (bool, error) { return false, nil })
}
