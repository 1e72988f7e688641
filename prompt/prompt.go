// Package prompt assembles the provider call payload. The layout is a
// performance contract, not cosmetics: a static system prompt first
// (identical across the whole session so providers with prompt-prefix
// caching reuse it), then the sliding conversation window, with the
// dynamic scene snapshot injected only into the final user message so
// it never invalidates the static prefix.
package prompt

import (
	"fmt"
	"strings"
	"sync"

	"github.com/NieAnim/MayaAgent/host"
	"github.com/NieAnim/MayaAgent/model"
	"github.com/NieAnim/MayaAgent/tool"
)

const (
	// DefaultMaxRounds is the sliding window size in complete rounds.
	DefaultMaxRounds = 10
	// DefaultMaxMessages is a hard message-count safety net applied
	// after the round window.
	DefaultMaxMessages = 20
)

// Assembler builds message sequences for provider calls. The static
// system prompt is computed once from the tool catalog and cached; the
// catalog is immutable after startup so the cache never goes stale.
type Assembler struct {
	registry    *tool.Registry
	maxRounds   int
	maxMessages int

	once         sync.Once
	systemPrompt string
}

func NewAssembler(registry *tool.Registry) *Assembler {
	return &Assembler{
		registry:    registry,
		maxRounds:   DefaultMaxRounds,
		maxMessages: DefaultMaxMessages,
	}
}

// SystemPrompt returns the static system prompt: role definition, tool
// usage rules, and the full tool schema catalog as JSON. It contains
// no dynamic data and is byte-identical for every request in a session.
func (a *Assembler) SystemPrompt() string {
	a.once.Do(func() {
		a.systemPrompt = a.buildSystemPrompt()
	})
	return a.systemPrompt
}

func (a *Assembler) buildSystemPrompt() string {
	specs := a.registry.AllSpecs()

	prompt := `你是一个运行在 Autodesk Maya 中的 AI 助手，专门帮助动画师完成日常工作。
你精通 Maya Python API (maya.cmds, maya.api)、动画原理、绑定技术和工作流优化。
请用中文回答，保持专业且简洁。

## execute_python_code 使用策略
你拥有 execute_python_code 工具，可以在 Maya 中执行任意 Python 代码。
使用策略：
- 当有对应的专用工具时（如 zero_out_transforms、set_keyframe），优先使用专用工具
- 当专用工具无法完成需求时，使用 execute_python_code 编写并执行 Maya Python 代码
- 查询场景信息、复杂批量操作、专用工具未覆盖的操作都应使用 execute_python_code
- 代码中用 print() 输出结果，输出会返回给你用于后续判断
- 可以使用 maya.cmds、maya.mel、maya.api.OpenMaya 等所有 Maya API

## 场景分析结论优先规则
工具输出中标注为「已通过精确计算验证」的场景几何分析结论是确定性的测量结果。
当这些结论与你基于截图或经验的判断冲突时，必须采纳工具给出的结论。
`

	if len(specs) > 0 {
		prompt += fmt.Sprintf(`
## 重要：工具调用规则
你拥有以下工具，可以直接在 Maya 中执行操作。
【核心规则】当用户要求你执行任何 Maya 操作时（如归零、创建物体、打关键帧等），你 **必须** 使用 function calling（工具调用）来执行，**绝对禁止** 输出 Python 代码让用户自己去执行。
【完成规则】当你收到工具执行的结果后，**必须直接用自然语言回复用户**，告诉用户操作的结果，**不要再次调用相同的工具**。
可用工具: %s

### 工具 Schema 参考
`+"```json\n%s\n```\n", strings.Join(a.registry.Names(), ", "), tool.CatalogJSON(specs))
	}

	return prompt
}

// BuildMessages assembles the full request payload: static system
// prompt, the windowed conversation, and the scene snapshot prepended
// to the final user message. A nil snapshot falls back to a marker so
// the model knows scene state was unavailable.
func (a *Assembler) BuildMessages(conversation []model.Message, snap *host.SceneSnapshot) []model.Message {
	messages := make([]model.Message, 0, len(conversation)+1)
	messages = append(messages, model.Message{
		Role:    model.RoleSystem,
		Content: a.SystemPrompt(),
	})

	conv := SlidingWindow(conversation, a.maxRounds)
	conv = capMessages(conv, a.maxMessages)

	context := "(场景上下文获取失败)"
	if snap != nil {
		context = snap.Format()
	}
	prefix := fmt.Sprintf("[Maya 实时场景状态]\n%s\n\n[用户请求]\n", context)

	for i, msg := range conv {
		if msg.Role == model.RoleUser && i == len(conv)-1 {
			msg.Content = prefix + msg.Content
		}
		messages = append(messages, msg)
	}
	return messages
}

// SlidingWindow keeps the most recent maxRounds complete rounds. A
// round is one user message plus everything until the next user
// message. Trimming removes whole rounds from the oldest end and never
// leaves a tool message without the assistant call it answers.
func SlidingWindow(conversation []model.Message, maxRounds int) []model.Message {
	if len(conversation) == 0 {
		return nil
	}

	var roundStarts []int
	for i, msg := range conversation {
		if msg.Role == model.RoleUser {
			roundStarts = append(roundStarts, i)
		}
	}
	if len(roundStarts) <= maxRounds {
		return conversation
	}

	cut := roundStarts[len(roundStarts)-maxRounds]
	for cut > 0 && conversation[cut].Role == model.RoleTool {
		cut--
	}
	return conversation[cut:]
}

// capMessages is a raw-count safety net behind the round window. Like
// the window it refuses to cut in front of a tool message.
func capMessages(conv []model.Message, maxMessages int) []model.Message {
	if len(conv) <= maxMessages {
		return conv
	}
	start := len(conv) - maxMessages
	for start > 0 && conv[start].Role == model.RoleTool {
		start--
	}
	return conv[start:]
}
