package scene

import "github.com/Carmen-Shannon/oxy-scene/engine/view"

// Messages published on the scene's messenger, if one is attached. Subscribe with
// messaging.Subscribe; handlers run on the render driver while the scene updates.

// ViewRegistered is published after RegisterView succeeds.
type ViewRegistered struct {
	SceneID   uint64
	ViewIndex int
	View      *view.Info
}

// ViewDeregistered is published after DeregisterView succeeds.
type ViewDeregistered struct {
	SceneID   uint64
	ViewIndex int
	View      *view.Info
}

// LayerAdded is published after AddLayer succeeds.
type LayerAdded struct {
	SceneID uint64
	Layer   string
}

// LayerRemoved is published after RemoveLayer succeeds, and for every non-default layer
// dropped by Clear.
type LayerRemoved struct {
	SceneID uint64
	Layer   string
}

// ComponentAttached is published after a component's attach hook succeeds.
type ComponentAttached struct {
	SceneID   uint64
	Component Component
	View      *view.Info
}

// ComponentDetached is published after a component's detach hook succeeds.
type ComponentDetached struct {
	SceneID   uint64
	Component Component
	View      *view.Info
}

// SceneUnloaded is published after the automatic unload released the scene's device resources.
type SceneUnloaded struct {
	SceneID   uint64
	Resources int
}
