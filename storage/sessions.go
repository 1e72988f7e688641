package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/NieAnim/MayaAgent/model"
)

// SessionMetadata is a lightweight view of a stored session for lists.
type SessionMetadata struct {
	ID           string    `json:"id"`
	Preview      string    `json:"preview"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	TotalTokens  int       `json:"total_tokens"`
}

// SessionStore persists sessions as one JSON file each under
// <data_dir>/sessions/.
type SessionStore struct {
	sessionsDir string
}

// NewSessionStore creates the sessions directory with user-only access.
func NewSessionStore(dataDir string) (*SessionStore, error) {
	sessionsDir := filepath.Join(dataDir, "sessions")
	if err := os.MkdirAll(sessionsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return &SessionStore{sessionsDir: sessionsDir}, nil
}

func (s *SessionStore) sessionPath(id string) string {
	return filepath.Join(s.sessionsDir, id+".json")
}

// Save writes a session to disk. Session files hold the full
// conversation, so they get 0600 permissions.
func (s *SessionStore) Save(session *model.Session) error {
	if session.ID == "" {
		return fmt.Errorf("session has no ID")
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := os.WriteFile(s.sessionPath(session.ID), data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Load reads a session from disk.
func (s *SessionStore) Load(id string) (*model.Session, error) {
	data, err := os.ReadFile(s.sessionPath(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// List returns metadata for all stored sessions, most recently
// modified first. Corrupted files are skipped.
func (s *SessionStore) List() ([]SessionMetadata, error) {
	entries, err := os.ReadDir(s.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessions []SessionMetadata
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.sessionsDir, entry.Name()))
		if err != nil {
			continue
		}
		var session model.Session
		if err := json.Unmarshal(data, &session); err != nil {
			continue
		}

		meta := SessionMetadata{
			ID:           session.ID,
			Preview:      SessionPreview(&session),
			CreatedAt:    session.CreatedAt,
			MessageCount: len(session.Messages),
			TotalTokens:  session.Usage.Total,
		}
		if info, err := entry.Info(); err == nil {
			meta.UpdatedAt = info.ModTime()
		}
		sessions = append(sessions, meta)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

// Delete removes a session file.
func (s *SessionStore) Delete(id string) error {
	if err := os.Remove(s.sessionPath(id)); err != nil {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// SaveCurrentSessionID records which session the panel had open, so a
// host restart can resume it.
func (s *SessionStore) SaveCurrentSessionID(id string) error {
	path := filepath.Join(filepath.Dir(s.sessionsDir), "current_session.id")
	return os.WriteFile(path, []byte(id), 0600)
}

// LoadCurrentSessionID returns the last active session ID.
func (s *SessionStore) LoadCurrentSessionID() (string, error) {
	path := filepath.Join(filepath.Dir(s.sessionsDir), "current_session.id")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// SessionPreview derives a short list label from the first user
// message, rune-safe for CJK input.
func SessionPreview(session *model.Session) string {
	var first string
	for _, msg := range session.Messages {
		if msg.Role == model.RoleUser {
			first = msg.Content
			break
		}
	}
	if first == "" {
		return "Session " + session.CreatedAt.Format("Jan 2, 3:04 PM")
	}

	first = strings.ReplaceAll(first, "\n", " ")
	first = strings.ReplaceAll(first, "\r", " ")
	first = strings.TrimSpace(first)

	runes := []rune(first)
	if len(runes) > 30 {
		return string(runes[:30]) + "..."
	}
	return first
}

// LockInstance writes a PID lock at <data_dir>/mayagent.lock. Two
// engine instances sharing one data directory would corrupt the
// history log and fight over the sqlite index.
func (s *SessionStore) LockInstance() error {
	lockPath := filepath.Join(filepath.Dir(s.sessionsDir), "mayagent.lock")
	return os.WriteFile(lockPath, []byte(fmt.Sprintf("%d", os.Getpid())), 0600)
}

// UnlockInstance removes the instance lock.
func (s *SessionStore) UnlockInstance() error {
	lockPath := filepath.Join(filepath.Dir(s.sessionsDir), "mayagent.lock")
	err := os.Remove(lockPath)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// CheckInstanceLock reports whether another engine instance holds the
// lock, and its PID. Stale or unparseable locks are cleaned up.
func (s *SessionStore) CheckInstanceLock() (bool, int, error) {
	lockPath := filepath.Join(filepath.Dir(s.sessionsDir), "mayagent.lock")

	data, err := os.ReadFile(lockPath)
	if os.IsNotExist(err) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("failed to read lock file: %w", err)
	}

	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		_ = os.Remove(lockPath)
		return false, 0, nil
	}

	// FindProcess always succeeds on Unix; this is a best-effort
	// cross-platform liveness check, not a guarantee.
	if _, err := os.FindProcess(pid); err != nil {
		_ = os.Remove(lockPath)
		return false, 0, nil
	}
	return true, pid, nil
}
