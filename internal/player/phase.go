package player

import "fmt"

// Phase is the lifecycle state of the engine. Exactly one is active.
type Phase int

const (
	PhaseInitializing Phase = iota
	PhaseAuthenticating
	PhaseListening
	PhaseClosing
	PhaseReconnecting
	PhaseFatal
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseAuthenticating:
		return "authenticating"
	case PhaseListening:
		return "listening"
	case PhaseClosing:
		return "closing"
	case PhaseReconnecting:
		return "reconnecting"
	case PhaseFatal:
		return "fatal"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}
