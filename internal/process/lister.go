package process

import (
	"context"
	"fmt"
	"strings"

	ps "github.com/mitchellh/go-ps"
)

// Target selects which process a check is about.
type Target int

const (
	TargetPlayer Target = iota
	TargetHelper
)

func (t Target) String() string {
	switch t {
	case TargetPlayer:
		return "player"
	case TargetHelper:
		return "helper"
	default:
		return fmt.Sprintf("target(%d)", int(t))
	}
}

// Lister reports whether some process is currently alive.
type Lister interface {
	Running(ctx context.Context) (bool, error)
}

// ListerFunc adapts a function to Lister.
type ListerFunc func(ctx context.Context) (bool, error)

func (f ListerFunc) Running(ctx context.Context) (bool, error) { return f(ctx) }

// ProcessLister matches running executables against a set of names.
type ProcessLister struct {
	names []string
	list  func() ([]ps.Process, error)
}

// NewProcessLister returns a Lister that is true when any process executable
// equals one of names, ignoring case.
func NewProcessLister(names ...string) *ProcessLister {
	normalized := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			normalized = append(normalized, strings.ToLower(n))
		}
	}
	return &ProcessLister{names: normalized, list: ps.Processes}
}

// Running enumerates the process table once.
func (l *ProcessLister) Running(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	procs, err := l.list()
	if err != nil {
		return false, fmt.Errorf("list processes: %w", err)
	}
	for _, p := range procs {
		exe := strings.ToLower(p.Executable())
		for _, name := range l.names {
			if exe == name {
				return true, nil
			}
		}
	}
	return false, nil
}

// AnyOf is true when at least one lister reports running. Errors from
// individual listers are only returned when none reports running.
func AnyOf(listers ...Lister) Lister {
	return ListerFunc(func(ctx context.Context) (bool, error) {
		var firstErr error
		for _, l := range listers {
			if l == nil {
				continue
			}
			running, err := l.Running(ctx)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if running {
				return true, nil
			}
		}
		return false, firstErr
	})
}
