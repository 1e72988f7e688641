package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/NieAnim/MayaAgent/model"
)

// HistoryIndex mirrors completed rounds into a sqlite database so that
// search does not depend on how much of the JSONL log is resident in
// memory. One row per round.
type HistoryIndex struct {
	db *sql.DB
}

// NewHistoryIndex opens (or creates) history.db under dataDir.
func NewHistoryIndex(dataDir string) (*HistoryIndex, error) {
	dbPath := filepath.Join(dataDir, "history.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	idx := &HistoryIndex{db: db}
	if err := idx.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return idx, nil
}

func (hi *HistoryIndex) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rounds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		user_input TEXT NOT NULL,
		assistant_reply TEXT NOT NULL,
		tools_used TEXT NOT NULL DEFAULT '[]',
		is_shortcut INTEGER NOT NULL DEFAULT 0,
		prompt_tokens INTEGER NOT NULL DEFAULT 0,
		completion_tokens INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_rounds_session ON rounds(session_id);
	CREATE INDEX IF NOT EXISTS idx_rounds_created ON rounds(created_at);
	`

	_, err := hi.db.Exec(schema)
	return err
}

// Insert adds one round to the index.
func (hi *HistoryIndex) Insert(rec Record) error {
	tools, err := json.Marshal(rec.ToolsUsed)
	if err != nil {
		return fmt.Errorf("failed to marshal tools: %w", err)
	}

	promptTokens, completionTokens := 0, 0
	if rec.Usage != nil {
		promptTokens = rec.Usage.Prompt
		completionTokens = rec.Usage.Completion
	}

	_, err = hi.db.Exec(`
		INSERT INTO rounds (session_id, user_input, assistant_reply, tools_used,
			is_shortcut, prompt_tokens, completion_tokens, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.UserInput, rec.AssistantReply, string(tools),
		rec.IsShortcut, promptTokens, completionTokens, rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert round: %w", err)
	}
	return nil
}

// Search returns up to limit rounds containing keyword in the user
// input, the reply, or the tool list, most recent first.
func (hi *HistoryIndex) Search(keyword string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + strings.ToLower(keyword) + "%"

	rows, err := hi.db.Query(`
		SELECT session_id, user_input, assistant_reply, tools_used,
			is_shortcut, prompt_tokens, completion_tokens, created_at
		FROM rounds
		WHERE lower(user_input) LIKE ? OR lower(assistant_reply) LIKE ? OR lower(tools_used) LIKE ?
		ORDER BY created_at DESC
		LIMIT ?`,
		pattern, pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// SessionRounds returns every round of one session, oldest first.
func (hi *HistoryIndex) SessionRounds(sessionID string) ([]Record, error) {
	rows, err := hi.db.Query(`
		SELECT session_id, user_input, assistant_reply, tools_used,
			is_shortcut, prompt_tokens, completion_tokens, created_at
		FROM rounds
		WHERE session_id = ?
		ORDER BY created_at ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query session rounds: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var rec Record
		var tools string
		var createdAt time.Time
		var promptTokens, completionTokens int

		err := rows.Scan(&rec.SessionID, &rec.UserInput, &rec.AssistantReply,
			&tools, &rec.IsShortcut, &promptTokens, &completionTokens, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}

		if err := json.Unmarshal([]byte(tools), &rec.ToolsUsed); err != nil {
			rec.ToolsUsed = nil
		}
		rec.Timestamp = createdAt
		if promptTokens > 0 || completionTokens > 0 {
			rec.Usage = &model.TokenUsage{
				Prompt:     promptTokens,
				Completion: completionTokens,
				Total:      promptTokens + completionTokens,
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// RoundCount returns the total number of indexed rounds.
func (hi *HistoryIndex) RoundCount() (int, error) {
	var count int
	err := hi.db.QueryRow(`SELECT COUNT(*) FROM rounds`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count rounds: %w", err)
	}
	return count, nil
}

// SessionCount returns the number of distinct sessions in the index.
func (hi *HistoryIndex) SessionCount() (int, error) {
	var count int
	err := hi.db.QueryRow(`SELECT COUNT(DISTINCT session_id) FROM rounds`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// Clear removes every indexed round.
func (hi *HistoryIndex) Clear() error {
	_, err := hi.db.Exec(`DELETE FROM rounds`)
	if err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (hi *HistoryIndex) Close() error {
	return hi.db.Close()
}
