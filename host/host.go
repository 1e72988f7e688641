// Package host defines the boundary to the embedding 3D application.
//
// The orchestration core never talks to Maya directly: scene inspection,
// user confirmation, undo bracketing, and the actual tool operations all
// go through the interfaces below. Inside Maya these are backed by the
// command port bindings; in tests they are backed by mocks.
package host

import (
	"context"

	"github.com/NieAnim/MayaAgent/model"
)

// Binding executes one host operation with validated arguments. It
// returns the operation's result string or the host-side error.
type Binding func(ctx context.Context, args map[string]any) (string, error)

// Bindings maps registered tool names to their host implementations.
type Bindings interface {
	// Lookup returns the binding for a tool name, or false if the host
	// does not implement it.
	Lookup(name string) (Binding, bool)
}

// Confirmer collects user consent before a mutating operation runs.
type Confirmer interface {
	// Confirm presents the pending call to the user and blocks until
	// they accept or decline. An error is treated as declined.
	Confirm(ctx context.Context, call model.ToolCall) (bool, error)
}

// Checkpointer brackets a mutating operation in the host's reversible
// action stack so a single tool call can be rolled back as one unit.
type Checkpointer interface {
	// OpenChunk acquires an undo checkpoint named after the operation.
	OpenChunk(name string) error
	// CloseChunk closes the most recently opened checkpoint. It must be
	// called on every exit path, including when the operation failed.
	CloseChunk() error
}

// ContextFetcher produces a point-in-time snapshot of the scene. The
// snapshot is taken once per model round and never cached across rounds,
// since a prior tool call may have changed the scene.
type ContextFetcher interface {
	Snapshot(ctx context.Context) (*SceneSnapshot, error)
}
