package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"github.com/NieAnim/MayaAgent/config"
	"github.com/NieAnim/MayaAgent/host"
	"github.com/NieAnim/MayaAgent/model"
	"github.com/NieAnim/MayaAgent/storage"
	"github.com/NieAnim/MayaAgent/tool"
)

// scriptedProvider replays canned event rounds, one per ChatStream call.
type scriptedProvider struct {
	mu     sync.Mutex
	rounds [][]model.StreamEvent
	calls  int
	// lastTools records the tool catalog of the most recent request.
	lastTools []mcptypes.Tool
}

func (p *scriptedProvider) ChatStream(ctx context.Context, messages []model.Message, tools []mcptypes.Tool) <-chan model.StreamEvent {
	p.mu.Lock()
	var round []model.StreamEvent
	if p.calls < len(p.rounds) {
		round = p.rounds[p.calls]
	} else {
		round = []model.StreamEvent{{Kind: model.EventCompleted}}
	}
	p.calls++
	p.lastTools = tools
	p.mu.Unlock()

	ch := make(chan model.StreamEvent, len(round))
	go func() {
		defer close(ch)
		for _, ev := range round {
			select {
			case <-ctx.Done():
				ch <- model.StreamEvent{Kind: model.EventCancelled}
				return
			case ch <- ev:
			}
		}
	}()
	return ch
}

func (p *scriptedProvider) ListModels(context.Context) ([]model.ModelInfo, error) { return nil, nil }
func (p *scriptedProvider) GetModel() string                                      { return "scripted" }
func (p *scriptedProvider) GetDisplayName() string                                { return "scripted" }
func (p *scriptedProvider) SetModel(string)                                       {}
func (p *scriptedProvider) Ping(context.Context) error                            { return nil }

// loopingProvider always answers with a tool call, for round-limit tests.
type loopingProvider struct {
	scriptedProvider
}

func (p *loopingProvider) ChatStream(ctx context.Context, messages []model.Message, tools []mcptypes.Tool) <-chan model.StreamEvent {
	p.mu.Lock()
	p.calls++
	n := p.calls
	p.mu.Unlock()

	ch := make(chan model.StreamEvent, 2)
	ch <- model.StreamEvent{Kind: model.EventToolCall, Call: &model.ToolCall{
		ID: fmt.Sprintf("call_%d", n), Name: "qa_check_transforms", Arguments: map[string]any{},
	}}
	ch <- model.StreamEvent{Kind: model.EventCompleted}
	close(ch)
	return ch
}

type recordingBindings struct {
	mu    sync.Mutex
	calls []string
}

func (b *recordingBindings) Lookup(name string) (host.Binding, bool) {
	return func(ctx context.Context, args map[string]any) (string, error) {
		b.mu.Lock()
		b.calls = append(b.calls, name)
		b.mu.Unlock()
		return "ok: " + name, nil
	}, true
}

type autoConfirmer struct{ accept bool }

func (c *autoConfirmer) Confirm(context.Context, model.ToolCall) (bool, error) {
	return c.accept, nil
}

// countingConfirmer records which calls asked for consent.
type countingConfirmer struct {
	mu     sync.Mutex
	accept bool
	asked  []string
}

func (c *countingConfirmer) Confirm(_ context.Context, call model.ToolCall) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.asked = append(c.asked, call.Name)
	return c.accept, nil
}

type nopCheckpointer struct{}

func (nopCheckpointer) OpenChunk(string) error { return nil }
func (nopCheckpointer) CloseChunk() error      { return nil }

type stubFetcher struct{ snap *host.SceneSnapshot }

func (f *stubFetcher) Snapshot(context.Context) (*host.SceneSnapshot, error) {
	if f.snap == nil {
		return &host.SceneSnapshot{}, nil
	}
	return f.snap, nil
}

func newTestEngine(t *testing.T, provider model.Provider) (*Engine, *recordingBindings) {
	t.Helper()
	return newTestEngineConfirmed(t, provider, &autoConfirmer{accept: true})
}

func newTestEngineConfirmed(t *testing.T, provider model.Provider, confirmer host.Confirmer) (*Engine, *recordingBindings) {
	t.Helper()

	registry := tool.NewRegistry()
	if failures := tool.RegisterAll(registry); len(failures) > 0 {
		t.Fatalf("catalog registration failed: %v", failures)
	}

	bindings := &recordingBindings{}
	executor := tool.NewExecutor(registry, bindings, confirmer, nopCheckpointer{})

	cfg := config.DefaultConfig()
	engine, err := NewEngine(cfg, provider, registry, executor, &stubFetcher{})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine, bindings
}

// collect drains the update channel and returns all updates.
func collect(t *testing.T, ch <-chan Update) []Update {
	t.Helper()
	var updates []Update
	timeout := time.After(5 * time.Second)
	for {
		select {
		case u, ok := <-ch:
			if !ok {
				return updates
			}
			updates = append(updates, u)
		case <-timeout:
			t.Fatalf("update channel did not close; got %d updates", len(updates))
		}
	}
}

func terminal(t *testing.T, updates []Update) Update {
	t.Helper()
	if len(updates) == 0 {
		t.Fatal("no updates")
	}
	last := updates[len(updates)-1]
	if !last.Terminal() {
		t.Fatalf("last update kind %d is not terminal", last.Kind)
	}
	for _, u := range updates[:len(updates)-1] {
		if u.Terminal() {
			t.Fatalf("terminal update before the end: kind %d", u.Kind)
		}
	}
	return last
}

func TestShortcutResolution(t *testing.T) {
	provider := &scriptedProvider{}
	engine, bindings := newTestEngine(t, provider)

	ch, err := engine.Send(context.Background(), "清零")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	updates := collect(t, ch)

	last := terminal(t, updates)
	if last.Kind != UpdateFinal || last.Resolution != ResolutionShortcut {
		t.Fatalf("terminal = %+v, want shortcut final", last)
	}
	if !strings.Contains(last.Message.Content, "zero_out_transforms") {
		t.Errorf("final content = %q", last.Message.Content)
	}
	if len(bindings.calls) != 1 || bindings.calls[0] != "zero_out_transforms" {
		t.Errorf("bindings invoked: %v", bindings.calls)
	}
	if provider.calls != 0 {
		t.Error("shortcut path touched the provider")
	}

	// Conversation carries user + assistant messages.
	msgs := engine.Session().Messages
	if len(msgs) != 2 || msgs[0].Role != model.RoleUser || msgs[1].Role != model.RoleAssistant {
		t.Errorf("session messages: %+v", msgs)
	}
}

func TestShortcutConfirmsMutatingTool(t *testing.T) {
	confirmer := &countingConfirmer{accept: true}
	engine, bindings := newTestEngineConfirmed(t, &scriptedProvider{}, confirmer)

	ch, err := engine.Send(context.Background(), "清零")
	if err != nil {
		t.Fatal(err)
	}
	updates := collect(t, ch)

	if len(confirmer.asked) != 1 || confirmer.asked[0] != "zero_out_transforms" {
		t.Errorf("confirmations = %v, want one for zero_out_transforms", confirmer.asked)
	}
	if len(bindings.calls) != 1 {
		t.Errorf("bindings invoked: %v", bindings.calls)
	}
	if terminal(t, updates).Resolution != ResolutionShortcut {
		t.Error("shortcut hit did not resolve as shortcut")
	}
}

func TestShortcutDeclinedRunsNothing(t *testing.T) {
	confirmer := &countingConfirmer{accept: false}
	engine, bindings := newTestEngineConfirmed(t, &scriptedProvider{}, confirmer)

	ch, err := engine.Send(context.Background(), "清零")
	if err != nil {
		t.Fatal(err)
	}
	updates := collect(t, ch)

	if len(bindings.calls) != 0 {
		t.Errorf("declined shortcut still ran: %v", bindings.calls)
	}
	last := terminal(t, updates)
	if last.Resolution != ResolutionShortcut {
		t.Fatalf("terminal = %+v", last)
	}
	if !strings.Contains(last.Message.Content, "已取消") {
		t.Errorf("decline not reported to the user: %q", last.Message.Content)
	}
}

func TestParametricShortcutPassesFrame(t *testing.T) {
	engine, _ := newTestEngine(t, &scriptedProvider{})

	ch, err := engine.Send(context.Background(), "在第24帧打关键帧")
	if err != nil {
		t.Fatal(err)
	}
	updates := collect(t, ch)

	var call *model.ToolCall
	for _, u := range updates {
		if u.Kind == UpdateToolCall {
			call = u.Call
		}
	}
	if call == nil || call.Name != "set_keyframe" {
		t.Fatalf("tool call = %+v", call)
	}
	if frame, ok := call.Arguments["frame"].(float64); !ok || frame != 24 {
		t.Errorf("frame argument = %v", call.Arguments["frame"])
	}
}

func TestPlainAnswerStreamsAndCaches(t *testing.T) {
	provider := &scriptedProvider{rounds: [][]model.StreamEvent{{
		{Kind: model.EventTextDelta, Text: "欧拉角是"},
		{Kind: model.EventTextDelta, Text: "一种旋转表示。"},
		{Kind: model.EventUsage, Usage: &model.TokenUsage{Prompt: 50, Completion: 10, Total: 60}},
		{Kind: model.EventCompleted},
	}}}
	engine, _ := newTestEngine(t, provider)

	ch, err := engine.Send(context.Background(), "什么是欧拉角")
	if err != nil {
		t.Fatal(err)
	}
	updates := collect(t, ch)

	last := terminal(t, updates)
	if last.Resolution != ResolutionModel {
		t.Fatalf("resolution = %v", last.Resolution)
	}
	if last.Message.Content != "欧拉角是一种旋转表示。" {
		t.Errorf("final content = %q", last.Message.Content)
	}

	var streamed strings.Builder
	for _, u := range updates {
		if u.Kind == UpdateTextDelta {
			streamed.WriteString(u.Text)
		}
	}
	if streamed.String() != last.Message.Content {
		t.Errorf("streamed %q, final %q", streamed.String(), last.Message.Content)
	}

	if engine.Session().Usage.Total != 60 {
		t.Errorf("session usage = %+v", engine.Session().Usage)
	}
	if len(provider.lastTools) == 0 {
		t.Error("tool catalog not offered to the model")
	}

	// The same question now resolves from the cache, no provider call.
	before := provider.calls
	ch, err = engine.Send(context.Background(), "什么是欧拉角？")
	if err != nil {
		t.Fatal(err)
	}
	updates = collect(t, ch)
	last = terminal(t, updates)
	if last.Resolution != ResolutionCache {
		t.Fatalf("second ask resolution = %v", last.Resolution)
	}
	if provider.calls != before {
		t.Error("cache hit still called the provider")
	}
}

func TestToolRoundThenFinalAnswer(t *testing.T) {
	provider := &scriptedProvider{rounds: [][]model.StreamEvent{
		{
			{Kind: model.EventToolCall, Call: &model.ToolCall{
				ID: "call_0", Name: "create_joints",
				Arguments: map[string]any{"joint_count": float64(3)},
			}},
			{Kind: model.EventToolCall, Call: &model.ToolCall{
				ID: "call_1", Name: "bind_skin", Arguments: map[string]any{},
			}},
			{Kind: model.EventCompleted},
		},
		{
			{Kind: model.EventTextDelta, Text: "骨骼已创建并完成蒙皮。"},
			{Kind: model.EventCompleted},
		},
	}}
	engine, bindings := newTestEngine(t, provider)

	ch, err := engine.Send(context.Background(), "创建三根骨骼然后绑定蒙皮到选中的模型上")
	if err != nil {
		t.Fatal(err)
	}
	updates := collect(t, ch)

	last := terminal(t, updates)
	if last.Kind != UpdateFinal || last.Message.Content != "骨骼已创建并完成蒙皮。" {
		t.Fatalf("terminal = %+v", last)
	}

	// Sequential execution in emission order.
	if len(bindings.calls) != 2 || bindings.calls[0] != "create_joints" || bindings.calls[1] != "bind_skin" {
		t.Errorf("execution order: %v", bindings.calls)
	}

	// Conversation: user, assistant(with calls), tool, tool, assistant.
	msgs := engine.Session().Messages
	if len(msgs) != 5 {
		t.Fatalf("session has %d messages: %+v", len(msgs), msgs)
	}
	if !msgs[1].HasToolCalls() {
		t.Error("assistant tool-call message not recorded")
	}
	if msgs[2].Role != model.RoleTool || msgs[2].ToolCallID != "call_0" {
		t.Errorf("first tool message = %+v", msgs[2])
	}
	if msgs[3].Role != model.RoleTool || msgs[3].ToolCallID != "call_1" {
		t.Errorf("second tool message = %+v", msgs[3])
	}

	// Tool-using requests are never cached.
	ch, err = engine.Send(context.Background(), "创建三根骨骼然后绑定蒙皮到选中的模型上")
	if err != nil {
		t.Fatal(err)
	}
	updates = collect(t, ch)
	if terminal(t, updates).Resolution == ResolutionCache {
		t.Error("tool-using answer served from cache")
	}
}

func TestRoundLimitExceeded(t *testing.T) {
	provider := &loopingProvider{}
	engine, _ := newTestEngine(t, provider)

	ch, err := engine.Send(context.Background(), "一直调用工具")
	if err != nil {
		t.Fatal(err)
	}
	updates := collect(t, ch)

	last := terminal(t, updates)
	if last.Kind != UpdateFinal {
		t.Fatalf("terminal = %+v", last)
	}
	if !strings.Contains(last.Message.Content, "工具调用轮次上限") {
		t.Errorf("round-limit notice missing: %q", last.Message.Content)
	}

	// Exactly maxRounds model calls, then the surfaced notice.
	if provider.calls != 8 {
		t.Errorf("provider called %d times, want 8", provider.calls)
	}

	var notices int
	for _, u := range updates {
		if u.Kind == UpdateNotice {
			notices++
		}
	}
	if notices != 1 {
		t.Errorf("got %d notices, want 1", notices)
	}
}

func TestRequestInFlightRejected(t *testing.T) {
	block := make(chan struct{})
	provider := &blockingProvider{release: block, started: make(chan struct{}, 1)}
	engine, _ := newTestEngine(t, provider)

	ch, err := engine.Send(context.Background(), "第一个请求")
	if err != nil {
		t.Fatal(err)
	}

	// Wait for the request to reach the provider.
	<-provider.started

	if _, err := engine.Send(context.Background(), "第二个请求"); !errors.Is(err, ErrRequestInFlight) {
		t.Errorf("second send error = %v, want ErrRequestInFlight", err)
	}

	close(block)
	collect(t, ch)

	// After completion a new request is accepted.
	ch, err = engine.Send(context.Background(), "第三个请求")
	if err != nil {
		t.Fatalf("send after completion failed: %v", err)
	}
	collect(t, ch)
}

// blockingProvider holds its stream open until released.
type blockingProvider struct {
	scriptedProvider
	release <-chan struct{}
	started chan struct{}
}

func (p *blockingProvider) ChatStream(ctx context.Context, messages []model.Message, tools []mcptypes.Tool) <-chan model.StreamEvent {
	ch := make(chan model.StreamEvent, 2)
	go func() {
		defer close(ch)
		select {
		case p.started <- struct{}{}:
		default:
		}
		if p.release != nil {
			<-p.release
		}
		ch <- model.StreamEvent{Kind: model.EventTextDelta, Text: "ok"}
		ch <- model.StreamEvent{Kind: model.EventCompleted}
	}()
	return ch
}

func TestProviderFailureForwarded(t *testing.T) {
	wantErr := errors.New("请求失败: 服务器内部错误")
	provider := &scriptedProvider{rounds: [][]model.StreamEvent{{
		{Kind: model.EventFailed, Err: wantErr},
	}}}
	engine, _ := newTestEngine(t, provider)

	ch, err := engine.Send(context.Background(), "会失败的请求")
	if err != nil {
		t.Fatal(err)
	}
	updates := collect(t, ch)

	last := terminal(t, updates)
	if last.Kind != UpdateFailed || !errors.Is(last.Err, wantErr) {
		t.Fatalf("terminal = %+v", last)
	}
}

func TestCancellationForwarded(t *testing.T) {
	provider := &scriptedProvider{rounds: [][]model.StreamEvent{{
		{Kind: model.EventTextDelta, Text: "部分"},
		{Kind: model.EventCancelled},
	}}}
	engine, _ := newTestEngine(t, provider)

	ch, err := engine.Send(context.Background(), "取消这个请求")
	if err != nil {
		t.Fatal(err)
	}
	updates := collect(t, ch)

	last := terminal(t, updates)
	if last.Kind != UpdateCancelled {
		t.Fatalf("terminal = %+v", last)
	}
	// Partial text stands; no synthetic assistant message replaces it.
	for _, msg := range engine.Session().Messages {
		if msg.Role == model.RoleAssistant {
			t.Errorf("cancelled request produced assistant message %+v", msg)
		}
	}
}

func TestSimilarHistoryLayer(t *testing.T) {
	provider := &scriptedProvider{}
	engine, _ := newTestEngine(t, provider)

	hist, err := storage.NewHistoryStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	hist.Append(storage.Record{
		SessionID:      "old",
		UserInput:      "什么是四元数",
		AssistantReply: "四元数是一种避免万向节锁的旋转表示。",
	})
	engine.SetHistory(hist)

	ch, err := engine.Send(context.Background(), "什么是四元数？")
	if err != nil {
		t.Fatal(err)
	}
	updates := collect(t, ch)

	last := terminal(t, updates)
	if last.Resolution != ResolutionHistory {
		t.Fatalf("resolution = %v", last.Resolution)
	}
	if last.Message.Content != "四元数是一种避免万向节锁的旋转表示。" {
		t.Errorf("reply = %q", last.Message.Content)
	}
	if provider.calls != 0 {
		t.Error("history hit still called the provider")
	}
}

func TestHistoryRecordsRounds(t *testing.T) {
	provider := &scriptedProvider{rounds: [][]model.StreamEvent{{
		{Kind: model.EventTextDelta, Text: "answer"},
		{Kind: model.EventUsage, Usage: &model.TokenUsage{Prompt: 40, Completion: 12, Total: 52}},
		{Kind: model.EventCompleted},
	}}}
	engine, _ := newTestEngine(t, provider)

	hist, err := storage.NewHistoryStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	engine.SetHistory(hist)

	ch, err := engine.Send(context.Background(), "record this exchange please")
	if err != nil {
		t.Fatal(err)
	}
	collect(t, ch)

	recs := hist.Records()
	if len(recs) != 1 {
		t.Fatalf("history has %d records, want 1", len(recs))
	}
	if recs[0].UserInput != "record this exchange please" || recs[0].AssistantReply != "answer" {
		t.Errorf("record = %+v", recs[0])
	}
	if recs[0].SessionID != engine.Session().ID {
		t.Error("record not keyed by session ID")
	}
	if recs[0].Usage == nil || recs[0].Usage.Prompt != 40 || recs[0].Usage.Completion != 12 {
		t.Errorf("round usage not recorded: %+v", recs[0].Usage)
	}
}

func TestResetStartsFreshSession(t *testing.T) {
	engine, _ := newTestEngine(t, &scriptedProvider{rounds: [][]model.StreamEvent{{
		{Kind: model.EventTextDelta, Text: "hi"},
		{Kind: model.EventCompleted},
	}}})

	ch, err := engine.Send(context.Background(), "hello there friend")
	if err != nil {
		t.Fatal(err)
	}
	collect(t, ch)

	old := engine.Reset()
	if len(old.Messages) == 0 {
		t.Error("Reset returned empty previous session")
	}
	if engine.Session().ID == old.ID {
		t.Error("Reset did not mint a new session")
	}
	if len(engine.Session().Messages) != 0 {
		t.Error("new session carries old messages")
	}
}
