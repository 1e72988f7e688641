package cache

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/NieAnim/MayaAgent/host"
)

// stripRe removes punctuation and whitespace while keeping CJK and
// alphanumeric characters, so "Maya 怎么导出 FBX?" and "maya怎么导出fbx"
// fingerprint identically.
var stripRe = regexp.MustCompile(`[^\w\x{4e00}-\x{9fff}]+`)

// selectionCues mark queries whose correct answer depends on what is
// currently selected. Such queries must carry the selection in their
// fingerprint or a stale answer would hit.
var selectionCues = []string{
	"选中", "选择", "这些", "它们", "当前",
	"selected", "selection", "these", "current",
}

// NormalizeQuery lowercases and strips a query to its content
// characters. An empty result means the query is not cacheable.
func NormalizeQuery(query string) string {
	text := strings.ToLower(strings.TrimSpace(query))
	return stripRe.ReplaceAllString(text, "")
}

// FingerprintPolicy decides which parts of the dynamic scene context
// participate in a cache key. The user text is always included. The
// selection is included only for selection-dependent queries, so a
// changed selection invalidates exactly the answers it could change.
// Timeline state (current frame, range) is never included: knowledge
// answers do not depend on it and including it would make every frame
// change a cache miss.
type FingerprintPolicy struct {
	// IncludeSelection forces selection state into every fingerprint,
	// trading hit rate for safety. Off by default; selection-dependent
	// queries are detected from the text instead.
	IncludeSelection bool
}

// Fingerprint computes the cache key for a query under this policy.
// Returns "" when the query has no cacheable content.
func (p FingerprintPolicy) Fingerprint(query string, snap *host.SceneSnapshot) string {
	normalized := NormalizeQuery(query)
	if normalized == "" {
		return ""
	}

	key := normalized
	if snap != nil && (p.IncludeSelection || selectionDependent(normalized)) {
		key += "|sel:" + strings.Join(snap.SelectionNames(), ",")
	}

	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}

func selectionDependent(normalized string) bool {
	for _, cue := range selectionCues {
		if strings.Contains(normalized, cue) {
			return true
		}
	}
	return false
}
