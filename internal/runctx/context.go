package runctx

import (
	"sync"

	"github.com/geo-mart/ABPedSim/pkg/core"
)

// Context holds the current run and scene state
type Context struct {
	mu    sync.RWMutex
	Run   *core.Run
	Scene *core.Scene
}

// NewContext creates a new Context with default values
func NewContext() *Context {
	return &Context{
		Run:   &core.Run{Name: "No run active"},
		Scene: &core.Scene{Name: "No scene loaded"},
	}
}

// GetRun returns the current run
func (rc *Context) GetRun() *core.Run {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.Run
}

// GetScene returns the current scene
func (rc *Context) GetScene() *core.Scene {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.Scene
}

// SetRun sets the current run and scene
func (rc *Context) SetRun(run *core.Run, scene *core.Scene) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.Run = run
	rc.Scene = scene
}
