package host

import (
	"fmt"
	"strings"
)

// Selection entries are capped at fetch time, and the prompt shows at
// most maxShownSelection of them.
const (
	MaxSelection      = 50
	maxShownSelection = 20
)

// SceneInfo describes the open scene file.
type SceneInfo struct {
	FileName   string `json:"file"`
	Dirty      bool   `json:"dirty"`
	UpAxis     string `json:"up_axis"`
	LinearUnit string `json:"linear_unit"`
}

// TimelineInfo describes the playback state.
type TimelineInfo struct {
	CurrentFrame float64 `json:"frame"`
	RangeStart   float64 `json:"range_start"`
	RangeEnd     float64 `json:"range_end"`
	FPS          float64 `json:"fps"`
	TimeUnit     string  `json:"time_unit"`
}

// SelectedObject describes one selected node.
type SelectedObject struct {
	Name      string `json:"name"`
	FullPath  string `json:"full_path"`
	NodeType  string `json:"type"`
	ShapeType string `json:"shape,omitempty"`
}

// SceneStats holds quick node-count statistics.
type SceneStats struct {
	DagNodes   int `json:"dag_nodes"`
	Transforms int `json:"transforms"`
	Meshes     int `json:"meshes"`
	Joints     int `json:"joints"`
	Cameras    int `json:"cameras"`
	Lights     int `json:"lights"`
	Curves     int `json:"curves"`
}

// SceneSnapshot is the full scene state injected into the dynamic part
// of the prompt.
type SceneSnapshot struct {
	Scene     SceneInfo        `json:"scene"`
	Timeline  TimelineInfo     `json:"timeline"`
	Selection []SelectedObject `json:"selection"`
	Stats     SceneStats       `json:"stats"`
}

// Format renders the snapshot as the readable context block the prompt
// assembler injects ahead of the user's request.
func (s *SceneSnapshot) Format() string {
	var b strings.Builder

	b.WriteString("=== Scene State ===\n")
	b.WriteString("[Scene]\n")
	fmt.Fprintf(&b, "  file: %s\n", s.Scene.FileName)
	fmt.Fprintf(&b, "  unsaved changes: %v\n", s.Scene.Dirty)
	fmt.Fprintf(&b, "  up axis: %s\n", strings.ToUpper(s.Scene.UpAxis))
	fmt.Fprintf(&b, "  linear unit: %s\n", s.Scene.LinearUnit)

	b.WriteString("[Stats]\n")
	fmt.Fprintf(&b, "  DAG nodes: %d  |  transforms: %d  |  meshes: %d\n",
		s.Stats.DagNodes, s.Stats.Transforms, s.Stats.Meshes)
	fmt.Fprintf(&b, "  joints: %d  |  cameras: %d  |  lights: %d  |  curves: %d\n",
		s.Stats.Joints, s.Stats.Cameras, s.Stats.Lights, s.Stats.Curves)

	b.WriteString("[Timeline]\n")
	fmt.Fprintf(&b, "  frame: %g  |  range: %g - %g  |  fps: %g (%s)\n",
		s.Timeline.CurrentFrame, s.Timeline.RangeStart, s.Timeline.RangeEnd,
		s.Timeline.FPS, s.Timeline.TimeUnit)

	fmt.Fprintf(&b, "[Selection] (%d objects)\n", len(s.Selection))
	if len(s.Selection) == 0 {
		b.WriteString("  (nothing selected)")
		return b.String()
	}

	shown := s.Selection
	if len(shown) > maxShownSelection {
		shown = shown[:maxShownSelection]
	}
	for _, obj := range shown {
		shape := ""
		if obj.ShapeType != "" {
			shape = fmt.Sprintf(" (shape: %s)", obj.ShapeType)
		}
		fmt.Fprintf(&b, "  - %s [%s%s]\n", obj.FullPath, obj.NodeType, shape)
	}
	if len(s.Selection) > maxShownSelection {
		fmt.Fprintf(&b, "  ... and %d more objects\n", len(s.Selection)-maxShownSelection)
	}

	return strings.TrimRight(b.String(), "\n")
}

// SelectionNames returns the short names of selected objects, used by
// the cache fingerprint policy for selection-dependent queries.
func (s *SceneSnapshot) SelectionNames() []string {
	names := make([]string, 0, len(s.Selection))
	for _, obj := range s.Selection {
		names = append(names, obj.Name)
	}
	return names
}
