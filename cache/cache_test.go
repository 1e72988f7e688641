package cache

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/NieAnim/MayaAgent/host"
	"github.com/NieAnim/MayaAgent/model"
)

func assistantMsg(content string) model.Message {
	return model.Message{Role: model.RoleAssistant, Content: content}
}

func TestCacheRoundTrip(t *testing.T) {
	c, err := NewResponseCache(0, 0)
	if err != nil {
		t.Fatal(err)
	}

	policy := FingerprintPolicy{}
	fp := policy.Fingerprint("Maya 怎么导出 FBX?", nil)
	if fp == "" {
		t.Fatal("expected non-empty fingerprint")
	}

	msg := assistantMsg("使用 File > Export 或 export_fbx 工具即可导出。")
	if err := c.Put(fp, msg); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := c.Get(fp)
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Content != msg.Content {
		t.Errorf("content = %q, want %q", got.Content, msg.Content)
	}

	// Normalization: punctuation and case variants hit the same entry.
	if policy.Fingerprint("maya怎么导出fbx", nil) != fp {
		t.Error("normalized variants should share a fingerprint")
	}
}

func TestCacheRejectsToolCalls(t *testing.T) {
	c, _ := NewResponseCache(0, 0)

	msg := model.Message{
		Role:    model.RoleAssistant,
		Content: "I'll zero out the selected controllers now.",
		ToolCalls: []model.ToolCall{
			{ID: "call_1", Name: "zero_out_transforms", Arguments: map[string]any{}},
		},
	}
	if err := c.Put("abc123", msg); !errors.Is(err, ErrNotCacheable) {
		t.Fatalf("expected ErrNotCacheable, got %v", err)
	}
	if _, ok := c.Get("abc123"); ok {
		t.Error("rejected message must not be retrievable")
	}
}

func TestCacheRejectsShortAndNonAssistant(t *testing.T) {
	c, _ := NewResponseCache(0, 0)

	if err := c.Put("k1", assistantMsg("ok")); !errors.Is(err, ErrNotCacheable) {
		t.Error("short response should be rejected")
	}
	if err := c.Put("k2", model.Message{Role: model.RoleUser, Content: "a long enough question here"}); !errors.Is(err, ErrNotCacheable) {
		t.Error("non-assistant message should be rejected")
	}
	if err := c.Put("", assistantMsg("a long enough response here")); !errors.Is(err, ErrNotCacheable) {
		t.Error("empty fingerprint should be rejected")
	}
}

func TestCacheLRUEviction(t *testing.T) {
	const capacity = 4
	c, _ := NewResponseCache(capacity, 0)

	for i := 0; i < capacity; i++ {
		if err := c.Put(fmt.Sprintf("fp-%d", i), assistantMsg("response body number one")); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
	}

	// Touch fp-0 so fp-1 becomes least recently used.
	if _, ok := c.Get("fp-0"); !ok {
		t.Fatal("expected fp-0 hit")
	}

	if err := c.Put("fp-new", assistantMsg("response body number two")); err != nil {
		t.Fatal(err)
	}

	if c.Len() != capacity {
		t.Errorf("len = %d, want %d", c.Len(), capacity)
	}
	if _, ok := c.Get("fp-1"); ok {
		t.Error("fp-1 should have been evicted as least recently used")
	}
	if _, ok := c.Get("fp-0"); !ok {
		t.Error("recently used fp-0 should survive eviction")
	}
}

func TestCacheTTLExpiry(t *testing.T) {
	c, _ := NewResponseCache(0, time.Hour)
	now := time.Now()
	c.now = func() time.Time { return now }

	if err := c.Put("fp", assistantMsg("a response long enough to cache")); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("fp"); !ok {
		t.Fatal("fresh entry should hit")
	}

	now = now.Add(2 * time.Hour)
	if _, ok := c.Get("fp"); ok {
		t.Error("expired entry should miss")
	}
	if c.Len() != 0 {
		t.Error("expired entry should be removed on lookup")
	}
}

func TestFingerprintSelectionPolicy(t *testing.T) {
	policy := FingerprintPolicy{}

	withSel := &host.SceneSnapshot{
		Selection: []host.SelectedObject{{Name: "arm_L_ctrl"}, {Name: "arm_R_ctrl"}},
	}
	otherSel := &host.SceneSnapshot{
		Selection: []host.SelectedObject{{Name: "spine_ctrl"}},
	}

	// Knowledge question: selection must not affect the key.
	q := "Maya 怎么导出 FBX"
	if policy.Fingerprint(q, withSel) != policy.Fingerprint(q, otherSel) {
		t.Error("context-insensitive query should ignore selection")
	}

	// Selection-dependent question: different selections, different keys.
	dep := "这些选中的控制器是什么类型"
	if policy.Fingerprint(dep, withSel) == policy.Fingerprint(dep, otherSel) {
		t.Error("selection-dependent query must include selection state")
	}

	// Same selection, same key.
	if policy.Fingerprint(dep, withSel) != policy.Fingerprint(dep, withSel) {
		t.Error("fingerprint must be deterministic")
	}

	// Forced inclusion covers English cues too.
	forced := FingerprintPolicy{IncludeSelection: true}
	if forced.Fingerprint(q, withSel) == forced.Fingerprint(q, otherSel) {
		t.Error("IncludeSelection must bind every key to the selection")
	}
}

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Maya 怎么导出 FBX?", "maya怎么导出fbx"},
		{"  HELLO world!  ", "helloworld"},
		{"...", ""},
		{"", ""},
	}
	for _, tc := range tests {
		if got := NormalizeQuery(tc.in); got != tc.want {
			t.Errorf("NormalizeQuery(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
