// Package storage persists conversations: a JSONL append-only history
// log that survives host restarts, a sqlite index mirroring completed
// rounds for search, and per-session JSON snapshots.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/NieAnim/MayaAgent/config"
	"github.com/NieAnim/MayaAgent/model"
)

const (
	// maxHistoryFileSize triggers log rotation.
	maxHistoryFileSize = 5 * 1024 * 1024

	// maxMemoryRecords caps the in-memory record list used for search.
	maxMemoryRecords = 2000

	// similarityThreshold gates the similar-Q&A second cache layer.
	similarityThreshold = 0.75
)

// Record is one completed round: the user's input and the final
// assistant reply, plus which tools ran along the way.
type Record struct {
	SessionID      string            `json:"session_id"`
	Timestamp      time.Time         `json:"timestamp"`
	UserInput      string            `json:"user_input"`
	AssistantReply string            `json:"assistant_reply"`
	ToolsUsed      []string          `json:"tools_used"`
	IsShortcut     bool              `json:"is_shortcut"`
	Usage          *model.TokenUsage `json:"usage,omitempty"`
}

// HistoryStats summarizes the in-memory history.
type HistoryStats struct {
	TotalRecords  int
	TotalSessions int
	ToolRecords   int
	QARecords     int
}

// HistoryStore is the append-only conversation log. Records go to
// agent_history.jsonl one JSON object per line; the file rotates with a
// timestamp suffix when it grows past 5 MB. The most recent records
// stay in memory for search and similarity matching.
type HistoryStore struct {
	mu      sync.Mutex
	path    string
	records []Record
	index   *HistoryIndex
	now     func() time.Time
}

// NewHistoryStore opens the history log under dataDir, loading existing
// records. A missing or partially corrupted log is not an error; bad
// lines are skipped.
func NewHistoryStore(dataDir string) (*HistoryStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	h := &HistoryStore{
		path: filepath.Join(dataDir, "agent_history.jsonl"),
		now:  time.Now,
	}
	if err := h.loadFromDisk(); err != nil {
		return nil, err
	}
	return h, nil
}

// AttachIndex mirrors future appends into a sqlite search index.
func (h *HistoryStore) AttachIndex(idx *HistoryIndex) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.index = idx
}

func (h *HistoryStore) loadFromDisk() error {
	f, err := os.Open(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read history file: %w", err)
	}

	if len(records) > maxMemoryRecords {
		records = records[len(records)-maxMemoryRecords:]
	}
	h.records = records
	return nil
}

// Append writes one record to memory and disk.
func (h *HistoryStore) Append(rec Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = h.now()
	}

	h.records = append(h.records, rec)
	if len(h.records) > maxMemoryRecords {
		h.records = h.records[len(h.records)-maxMemoryRecords:]
	}

	h.maybeRotate()

	f, err := os.OpenFile(h.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal history record: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append history record: %w", err)
	}

	if h.index != nil {
		if err := h.index.Insert(rec); err != nil && config.Debug {
			config.DebugLog.Printf("[History] index insert failed: %v", err)
		}
	}
	return nil
}

// maybeRotate renames the log with a timestamp suffix once it exceeds
// the size cap. Called with the mutex held.
func (h *HistoryStore) maybeRotate() {
	info, err := os.Stat(h.path)
	if err != nil || info.Size() < maxHistoryFileSize {
		return
	}

	suffix := h.now().Format("20060102_150405")
	rotated := strings.TrimSuffix(h.path, ".jsonl") + "_" + suffix + ".jsonl"
	if err := os.Rename(h.path, rotated); err != nil && config.Debug {
		config.DebugLog.Printf("[History] rotation failed: %v", err)
	}
}

// Records returns a copy of the in-memory records, oldest first.
func (h *HistoryStore) Records() []Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Record, len(h.records))
	copy(out, h.records)
	return out
}

// SessionRecords returns the records belonging to one session.
func (h *HistoryStore) SessionRecords(sessionID string) []Record {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []Record
	for _, rec := range h.records {
		if rec.SessionID == sessionID {
			out = append(out, rec)
		}
	}
	return out
}

// historyHaystack adapts records to fuzzy.Source.
type historyHaystack []Record

func (hh historyHaystack) String(i int) string {
	rec := hh[i]
	return rec.UserInput + " " + rec.AssistantReply + " " + strings.Join(rec.ToolsUsed, " ")
}

func (hh historyHaystack) Len() int { return len(hh) }

// Search ranks history records against a keyword. An empty keyword
// returns everything, most recent first. Matching combines fuzzy
// subsequence ranking with plain substring containment so that CJK
// queries (where fuzzy scoring is weak) still hit.
func (h *HistoryStore) Search(keyword string) []Record {
	h.mu.Lock()
	defer h.mu.Unlock()

	if keyword == "" {
		out := make([]Record, len(h.records))
		for i, rec := range h.records {
			out[len(h.records)-1-i] = rec
		}
		return out
	}

	haystack := historyHaystack(h.records)
	matches := fuzzy.FindFrom(keyword, haystack)

	seen := make(map[int]bool, len(matches))
	var out []Record
	for _, m := range matches {
		seen[m.Index] = true
		out = append(out, h.records[m.Index])
	}

	lower := strings.ToLower(keyword)
	var extra []int
	for i := len(h.records) - 1; i >= 0; i-- {
		if seen[i] {
			continue
		}
		if strings.Contains(strings.ToLower(haystack.String(i)), lower) {
			extra = append(extra, i)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(extra)))
	for _, i := range extra {
		out = append(out, h.records[i])
	}
	return out
}

// FindSimilarReply looks for a past pure-Q&A round whose question is
// close enough to query and returns its reply. Rounds that invoked
// tools or resolved via shortcut never qualify; their outcome depends
// on scene state, not just the question text.
func (h *HistoryStore) FindSimilarReply(query string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	normalized := normalizeText(query)
	if normalized == "" {
		return "", false
	}

	bestScore := 0.0
	bestReply := ""

	for i := len(h.records) - 1; i >= 0; i-- {
		rec := h.records[i]
		if len(rec.ToolsUsed) > 0 || rec.IsShortcut {
			continue
		}

		past := normalizeText(rec.UserInput)
		if past == "" {
			continue
		}

		// Quick reject on length ratio before scoring.
		ratio := float64(len(normalized)) / float64(max(len(past), 1))
		if ratio < 0.3 || ratio > 3.0 {
			continue
		}

		score := bigramSimilarity(normalized, past)
		if score > bestScore {
			bestScore = score
			bestReply = rec.AssistantReply
		}
	}

	if bestScore >= similarityThreshold && bestReply != "" {
		return bestReply, true
	}
	return "", false
}

// Stats summarizes the in-memory history.
func (h *HistoryStore) Stats() HistoryStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessions := make(map[string]bool)
	toolRecords := 0
	for _, rec := range h.records {
		sessions[rec.SessionID] = true
		if len(rec.ToolsUsed) > 0 {
			toolRecords++
		}
	}
	return HistoryStats{
		TotalRecords:  len(h.records),
		TotalSessions: len(sessions),
		ToolRecords:   toolRecords,
		QARecords:     len(h.records) - toolRecords,
	}
}

// Clear removes all history from memory and disk.
func (h *HistoryStore) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = nil
	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove history file: %w", err)
	}
	return nil
}

var normalizeTextRe = regexp.MustCompile(`[^\w\x{4e00}-\x{9fff}]+`)

// normalizeText lowercases and strips everything except word
// characters and CJK ideographs, matching the cache fingerprint
// normalization.
func normalizeText(text string) string {
	return normalizeTextRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), "")
}

// bigramSimilarity is the Dice coefficient over rune bigrams.
// Single-rune strings fall back to exact comparison.
func bigramSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) < 2 || len(rb) < 2 {
		return 0.0
	}

	counts := make(map[[2]rune]int)
	for i := 0; i < len(ra)-1; i++ {
		counts[[2]rune{ra[i], ra[i+1]}]++
	}

	overlap := 0
	for i := 0; i < len(rb)-1; i++ {
		key := [2]rune{rb[i], rb[i+1]}
		if counts[key] > 0 {
			counts[key]--
			overlap++
		}
	}

	total := (len(ra) - 1) + (len(rb) - 1)
	return 2.0 * float64(overlap) / float64(total)
}
