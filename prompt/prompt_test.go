package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/NieAnim/MayaAgent/host"
	"github.com/NieAnim/MayaAgent/model"
	"github.com/NieAnim/MayaAgent/tool"
)

func newTestAssembler(t *testing.T) *Assembler {
	t.Helper()
	r := tool.NewRegistry()
	if failures := tool.RegisterAll(r); len(failures) != 0 {
		t.Fatalf("RegisterAll failures: %v", failures)
	}
	return NewAssembler(r)
}

func user(content string) model.Message {
	return model.Message{Role: model.RoleUser, Content: content}
}

func assistant(content string) model.Message {
	return model.Message{Role: model.RoleAssistant, Content: content}
}

func toolMsg(callID, content string) model.Message {
	return model.Message{Role: model.RoleTool, ToolCallID: callID, Content: content}
}

func assistantWithCalls(ids ...string) model.Message {
	msg := model.Message{Role: model.RoleAssistant}
	for _, id := range ids {
		msg.ToolCalls = append(msg.ToolCalls, model.ToolCall{ID: id, Name: "set_keyframe"})
	}
	return msg
}

func TestSystemPromptStatic(t *testing.T) {
	a := newTestAssembler(t)

	first := a.SystemPrompt()
	second := a.SystemPrompt()
	if first != second {
		t.Error("system prompt must be byte-identical across calls for prefix caching")
	}
	for _, want := range []string{
		"execute_python_code",
		"function calling",
		"zero_out_transforms",
		"精确计算验证",
	} {
		if !strings.Contains(first, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
}

func TestBuildMessagesLayout(t *testing.T) {
	a := newTestAssembler(t)

	snap := &host.SceneSnapshot{
		Scene:     host.SceneInfo{FileName: "walk_cycle.ma"},
		Selection: []host.SelectedObject{{Name: "arm_L_ctrl", NodeType: "transform"}},
	}
	conv := []model.Message{
		user("把选中的归零"),
		assistant("已完成归零。"),
		user("现在打个关键帧"),
	}

	msgs := a.BuildMessages(conv, snap)
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	if msgs[0].Role != model.RoleSystem {
		t.Fatal("first message must be the system prompt")
	}
	if msgs[0].Content != a.SystemPrompt() {
		t.Error("system prompt must be the unmodified static prefix")
	}

	last := msgs[len(msgs)-1]
	if last.Role != model.RoleUser {
		t.Fatal("last message must be the user turn")
	}
	if !strings.Contains(last.Content, "[Maya 实时场景状态]") {
		t.Error("scene snapshot missing from final user message")
	}
	if !strings.Contains(last.Content, "walk_cycle.ma") {
		t.Error("snapshot content not injected")
	}
	if !strings.Contains(last.Content, "[用户请求]\n现在打个关键帧") {
		t.Error("user text must follow the context block")
	}

	// Earlier user messages stay untouched.
	if strings.Contains(msgs[1].Content, "[Maya 实时场景状态]") {
		t.Error("snapshot must only be injected into the final user message")
	}
}

func TestBuildMessagesNilSnapshot(t *testing.T) {
	a := newTestAssembler(t)
	msgs := a.BuildMessages([]model.Message{user("hello there")}, nil)
	last := msgs[len(msgs)-1]
	if !strings.Contains(last.Content, "场景上下文获取失败") {
		t.Error("nil snapshot should surface as unavailable, not vanish")
	}
}

func TestSlidingWindowKeepsRecentRounds(t *testing.T) {
	var conv []model.Message
	for i := 0; i < 15; i++ {
		conv = append(conv, user(fmt.Sprintf("question %d", i)), assistant(fmt.Sprintf("answer %d", i)))
	}

	got := SlidingWindow(conv, 10)
	if len(got) != 20 {
		t.Fatalf("expected 20 messages (10 rounds), got %d", len(got))
	}
	if got[0].Content != "question 5" {
		t.Errorf("window should start at round 5, got %q", got[0].Content)
	}
	if got[len(got)-1].Content != "answer 14" {
		t.Error("newest round must survive")
	}
}

func TestSlidingWindowNeverStrandsToolMessages(t *testing.T) {
	// Round 0 ends with an assistant tool call answered by tool
	// messages that lead round 1's cut position.
	conv := []model.Message{
		user("round 0"),
		assistantWithCalls("call_a", "call_b"),
		toolMsg("call_a", "ok"),
		toolMsg("call_b", "ok"),
		assistant("round 0 done"),
	}
	for i := 1; i <= 10; i++ {
		conv = append(conv, user(fmt.Sprintf("round %d", i)), assistant("done"))
	}

	got := SlidingWindow(conv, 10)
	// 11 rounds total, window of 10 would cut at round 1's user
	// message; that cut is safe here, so round 0 drops whole.
	if got[0].Role != model.RoleUser || got[0].Content != "round 1" {
		t.Fatalf("expected window to start at round 1, got %s %q", got[0].Role, got[0].Content)
	}
	for _, msg := range got {
		if msg.Role == model.RoleTool {
			t.Fatal("no tool messages should remain from dropped rounds")
		}
	}
}

func TestSlidingWindowBacksUpOverToolRun(t *testing.T) {
	// Craft a conversation where the raw cut index lands on a tool
	// message: the window must back up to include its assistant call.
	conv := []model.Message{
		assistantWithCalls("call_1"),
		toolMsg("call_1", "ok"),
	}
	for i := 0; i < 3; i++ {
		conv = append(conv, user(fmt.Sprintf("q%d", i)), assistant("a"))
	}

	// maxRounds 3 keeps all user rounds; the leading tool pair has no
	// user message so the window is the whole slice.
	got := SlidingWindow(conv, 3)
	if len(got) != len(conv) {
		t.Fatalf("expected full conversation, got %d of %d", len(got), len(conv))
	}

	// Now force a cut at the toolMsg position.
	conv2 := []model.Message{
		user("old question"),
		assistantWithCalls("call_2"),
		toolMsg("call_2", "result"),
	}
	// The tool message is immediately before the next user message.
	for i := 0; i < 5; i++ {
		conv2 = append(conv2, user(fmt.Sprintf("q%d", i)), assistant("a"))
	}
	got2 := SlidingWindow(conv2, 5)
	if got2[0].Role == model.RoleTool {
		t.Fatal("window must not start with a stranded tool message")
	}
}
