package shortcut

import (
	"strings"
	"testing"
)

func TestMatch(t *testing.T) {
	m := NewMatcher()

	tests := []struct {
		name     string
		input    string
		wantTool string // empty means no match
		wantArgs map[string]any
	}{
		{"chinese zero out", "清零", "zero_out_transforms", nil},
		{"chinese zero out variant", "把选中的归零", "zero_out_transforms", nil},
		{"english zero out", "zero out", "zero_out_transforms", nil},
		{"english zero out case", "Zero Out", "zero_out_transforms", nil},
		{"english reset transform", "reset transform", "zero_out_transforms", nil},
		{"set key chinese", "打帧", "set_keyframe", nil},
		{"set key english", "set key", "set_keyframe", nil},
		{"set key k frame", "k帧", "set_keyframe", nil},
		{"keyframe at frame prefix", "在第24帧打关键帧", "set_keyframe", map[string]any{"frame": float64(24)}},
		{"keyframe at frame suffix", "打帧到第120帧", "set_keyframe", map[string]any{"frame": float64(120)}},
		{"keyframe at frame english", "set key at frame 24", "set_keyframe", map[string]any{"frame": float64(24)}},
		{"keyframe at frame english bare", "keyframe at frame 8", "set_keyframe", map[string]any{"frame": float64(8)}},
		{"keyframe to frame english", "set keyframe to frame 120", "set_keyframe", map[string]any{"frame": float64(120)}},
		{"create locator", "创建定位器", "create_locator_at_selection", nil},
		{"euler filter english", "euler filter", "euler_filter", nil},
		{"euler filter chinese", "修复万向节锁", "euler_filter", nil},
		{"freeze", "freeze", "freeze_transformations", nil},
		{"center pivot", "center pivot", "center_pivot", nil},
		{"delete history", "删除历史", "delete_history", nil},
		{"qa check", "哪些控制器没归零", "qa_check_transforms", nil},
		{"delete", "删除选中", "delete_objects", nil},
		{"leading whitespace", "  清零  ", "zero_out_transforms", nil},

		{"empty", "", "", nil},
		{"whitespace only", "   ", "", nil},
		{"question mark ascii", "怎么清零?", "", nil},
		{"question mark fullwidth", "怎么清零？", "", nil},
		{"long sentence", strings.Repeat("请", 31), "", nil},
		{"free-form request", "帮我把这个角色的walk cycle做得更自然一点", "", nil},
		{"partial word no fallthrough", "zero out everything please", "", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := m.Match(tc.input)
			if tc.wantTool == "" {
				if got != nil {
					t.Fatalf("expected no match, got %s", got.ToolName)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected match %s, got none", tc.wantTool)
			}
			if got.ToolName != tc.wantTool {
				t.Errorf("tool = %s, want %s", got.ToolName, tc.wantTool)
			}
			if tc.wantArgs == nil && len(got.Args) != 0 {
				t.Errorf("expected empty args, got %v", got.Args)
			}
			for k, want := range tc.wantArgs {
				if got.Args[k] != want {
					t.Errorf("args[%s] = %v, want %v", k, got.Args[k], want)
				}
			}
		})
	}
}

func TestMatchFirstWins(t *testing.T) {
	m := NewMatcher()
	// "冻结" appears only in the freeze rule, but "删除历史" is covered
	// by the delete-history rule ahead of the generic delete rule.
	got := m.Match("删除历史")
	if got == nil || got.ToolName != "delete_history" {
		t.Fatalf("expected delete_history, got %+v", got)
	}
}
