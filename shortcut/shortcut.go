// Package shortcut short-circuits high-frequency commands before they
// reach the network. Input is matched against an ordered bilingual rule
// table and resolved straight to a tool invocation, so routine commands
// like "清零" or "zero out" answer with zero latency and zero tokens.
package shortcut

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// maxShortcutLen rejects long sentences. Shortcuts are for short
// imperative commands; anything longer goes to the model.
const maxShortcutLen = 30

// ResolvedAction is a shortcut hit: the tool to invoke and the
// arguments extracted from the input.
type ResolvedAction struct {
	ToolName string
	Args     map[string]any
	Matched  string
}

// argsBuilder turns regex submatches into tool arguments. Builders
// that fail fall back to empty arguments rather than failing the match.
type argsBuilder func(groups map[string]string) (map[string]any, error)

type rule struct {
	pattern *regexp.Regexp
	tool    string
	build   argsBuilder
}

// Matcher holds the ordered rule table. Matching is first-match-wins;
// rule order is significant.
type Matcher struct {
	rules []rule
}

// NewMatcher builds the default bilingual rule table.
func NewMatcher() *Matcher {
	m := &Matcher{}

	m.add(`^(清零|归零|zero\s*out|reset\s*transform|把.*归零|把.*清零|`+
		`选中.*归零|选中.*清零|帮我.*归零|帮我.*清零|所有.*归零)$`,
		"zero_out_transforms", nil)

	m.add(`^(打帧|打关键帧|set\s*key|key\s*frame|k帧|打key|打个帧|帮我打帧|`+
		`设置关键帧|设关键帧|设个帧|打一帧)$`,
		"set_keyframe", nil)

	// Parametric: extract the frame number from either word order.
	m.add(`^(?:在|到)?第?\s*(?P<frame>\d+)\s*帧(?:打帧|打关键帧|设置关键帧|打key|k帧|设帧)$`,
		"set_keyframe", frameArg)
	m.add(`^(?:打帧|打关键帧|设置关键帧|打key|k帧|设帧)(?:到|在)?第?\s*(?P<frame>\d+)\s*帧$`,
		"set_keyframe", frameArg)
	m.add(`^(?:set\s*)?key(?:frame)?\s*(?:at|on|to)?\s*frame\s*(?P<frame>\d+)$`,
		"set_keyframe", frameArg)

	m.add(`^(创建定位器|创建locator|建定位器|加定位器|放定位器|`+
		`帮我.*创建定位器|在.*位置.*定位器)$`,
		"create_locator_at_selection", nil)

	m.add(`^(欧拉.*滤波|euler\s*filter|修复.*万向.*锁|清理.*旋转|`+
		`滤波|欧拉滤波|帮我.*欧拉.*滤波)$`,
		"euler_filter", nil)

	m.add(`^(冻结变换|冻结|freeze\s*transform|freeze|冻结选中|帮我冻结)$`,
		"freeze_transformations", nil)

	m.add(`^(居中轴心|居中pivot|center\s*pivot|轴心居中|居中枢轴)$`,
		"center_pivot", nil)

	m.add(`^(删除历史|删历史|delete\s*history|清除历史|清除构造历史|删除构造历史)$`,
		"delete_history", nil)

	m.add(`^(qa检查|检查.*归零|检查.*清零|检查控制器|qa\s*check|`+
		`哪些.*没.*归零|哪些.*没.*清零)$`,
		"qa_check_transforms", nil)

	m.add(`^(删除|delete|删除选中|删掉|删除物体)$`,
		"delete_objects", nil)

	return m
}

func (m *Matcher) add(pattern, tool string, build argsBuilder) {
	m.rules = append(m.rules, rule{
		pattern: regexp.MustCompile(`(?i)` + pattern),
		tool:    tool,
		build:   build,
	})
}

// Match resolves raw input against the rule table. It is a pure
// function over the input text: no network, no cache, no host state.
// Returns nil when no rule matches and the model path should proceed.
func (m *Matcher) Match(raw string) *ResolvedAction {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}
	// Questions and long sentences are never shortcuts.
	if utf8.RuneCountInString(text) > maxShortcutLen {
		return nil
	}
	if strings.HasSuffix(text, "?") || strings.HasSuffix(text, "？") {
		return nil
	}

	for _, r := range m.rules {
		groups := matchGroups(r.pattern, text)
		if groups == nil {
			continue
		}
		args := map[string]any{}
		if r.build != nil {
			if built, err := r.build(groups); err == nil {
				args = built
			}
		}
		return &ResolvedAction{ToolName: r.tool, Args: args, Matched: text}
	}
	return nil
}

// matchGroups matches the whole input and returns named submatches,
// or nil when the pattern does not match.
func matchGroups(pattern *regexp.Regexp, text string) map[string]string {
	sub := pattern.FindStringSubmatch(text)
	if sub == nil || len(sub[0]) != len(text) {
		return nil
	}
	groups := make(map[string]string)
	for i, name := range pattern.SubexpNames() {
		if name != "" && i < len(sub) {
			groups[name] = sub[i]
		}
	}
	return groups
}

func frameArg(groups map[string]string) (map[string]any, error) {
	frame, err := strconv.Atoi(groups["frame"])
	if err != nil {
		return nil, err
	}
	return map[string]any{"frame": float64(frame)}, nil
}
