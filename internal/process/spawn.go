package process

import (
	"fmt"
	"os"
	"os/exec"
)

// Spawner launches an executable without waiting for it.
type Spawner interface {
	Spawn(path string) error
}

// DetachedSpawner starts the process in its own session so it outlives us.
type DetachedSpawner struct{}

func (DetachedSpawner) Spawn(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	cmd := exec.Command(path)
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", path, err)
	}
	return cmd.Process.Release()
}
