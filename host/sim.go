package host

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/NieAnim/MayaAgent/model"
)

// SimHost is an in-process stand-in for the Maya command port, used by
// the dev harness and by tests that need a full engine without a running
// Maya. Every registered tool gets an echo binding that reports the
// operation and its arguments; undo chunks are counted so bracketing
// bugs show up as a nonzero balance.
type SimHost struct {
	mu        sync.Mutex
	snapshot  SceneSnapshot
	chunkBal  int
	callNames []string
}

// NewSimHost builds a simulator with a small plausible scene.
func NewSimHost() *SimHost {
	return &SimHost{
		snapshot: SceneSnapshot{
			Scene: SceneInfo{
				FileName:   "untitled.ma",
				Dirty:      false,
				UpAxis:     "y",
				LinearUnit: "cm",
			},
			Timeline: TimelineInfo{
				CurrentFrame: 1,
				RangeStart:   1,
				RangeEnd:     120,
				FPS:          24,
				TimeUnit:     "film",
			},
			Selection: []SelectedObject{
				{Name: "pCube1", FullPath: "|pCube1", NodeType: "transform", ShapeType: "mesh"},
			},
			Stats: SceneStats{DagNodes: 12, Transforms: 4, Meshes: 1, Cameras: 4},
		},
	}
}

// Lookup implements Bindings. Every tool name resolves; unknown names
// are the registry's concern, not the simulator's.
func (h *SimHost) Lookup(name string) (Binding, bool) {
	return func(ctx context.Context, args map[string]any) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		h.mu.Lock()
		h.callNames = append(h.callNames, name)
		h.mu.Unlock()
		return fmt.Sprintf("[sim] %s(%s) executed", name, formatArgs(args)), nil
	}, true
}

// Snapshot implements ContextFetcher.
func (h *SimHost) Snapshot(ctx context.Context) (*SceneSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	snap := h.snapshot
	return &snap, nil
}

// OpenChunk implements Checkpointer.
func (h *SimHost) OpenChunk(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.chunkBal++
	return nil
}

// CloseChunk implements Checkpointer.
func (h *SimHost) CloseChunk() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.chunkBal--
	return nil
}

// ChunkBalance returns open minus closed undo chunks. Zero after a
// request means bracketing held.
func (h *SimHost) ChunkBalance() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.chunkBal
}

// Calls returns the tool names executed so far, in order.
func (h *SimHost) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.callNames...)
}

func formatArgs(args map[string]any) string {
	if len(args) == 0 {
		return ""
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, args[k])
	}
	return strings.Join(parts, ", ")
}

// TerminalConfirmer implements Confirmer over a line-based terminal.
// Anything other than y or yes declines.
type TerminalConfirmer struct {
	In  io.Reader
	Out io.Writer
}

// Confirm prompts for consent and reads one line.
func (c *TerminalConfirmer) Confirm(ctx context.Context, call model.ToolCall) (bool, error) {
	fmt.Fprintf(c.Out, "即将执行 %s(%s)，确认？[y/N] ", call.Name, formatArgs(call.Arguments))
	scanner := bufio.NewScanner(c.In)
	if !scanner.Scan() {
		return false, scanner.Err()
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes", nil
}

// AutoConfirmer implements Confirmer by accepting everything. For
// unattended harness runs and tests only.
type AutoConfirmer struct{}

func (AutoConfirmer) Confirm(ctx context.Context, call model.ToolCall) (bool, error) {
	return true, nil
}
