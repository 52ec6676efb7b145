// Package session persists conversation records, one JSON file per
// session keyed by a time-derived id.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// TimeLayout is the timestamp format used in session records.
const TimeLayout = "2006-01-02 15:04:05"

// Roles a message may carry.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrNotFound indicates the requested session record does not exist.
var ErrNotFound = errors.New("session not found")

// Message is a single conversation entry.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session is one conversation record.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

// validate rejects records that do not carry the expected schema.
func (s *Session) validate() error {
	if s.ID == "" {
		return errors.New("session record has no id")
	}
	for _, msg := range s.Messages {
		if msg.Role != RoleUser && msg.Role != RoleAssistant {
			return fmt.Errorf("session %s has invalid message role %q", s.ID, msg.Role)
		}
	}
	return nil
}

// Store owns the on-disk session records.
type Store struct {
	dir string
}

// NewStore creates a session store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Create generates a new session with a timestamp-derived id and
// persists it. Two sessions created within the same second get a
// counter suffix so neither overwrites the other.
func (s *Store) Create(model string) (*Session, error) {
	now := time.Now()
	id := fmt.Sprintf("session_%s", now.Format("20060102150405"))
	for n := 2; s.exists(id); n++ {
		id = fmt.Sprintf("session_%s-%d", now.Format("20060102150405"), n)
	}

	sess := &Session{
		ID:        id,
		Title:     fmt.Sprintf("Session %s", now.Format("2006-01-02 15:04")),
		Model:     model,
		Messages:  []Message{},
		CreatedAt: now.Format(TimeLayout),
		UpdatedAt: now.Format(TimeLayout),
	}
	if err := s.Save(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Save persists the session record. The write goes through a temp file
// so the record on disk is never half-written.
func (s *Store) Save(sess *Session) error {
	if err := sess.validate(); err != nil {
		return err
	}
	sess.UpdatedAt = time.Now().Format(TimeLayout)

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(sess.ID)); err != nil {
		return fmt.Errorf("failed to move session into place: %w", err)
	}
	return nil
}

// Append adds a message to the session and persists it immediately.
func (s *Store) Append(sess *Session, role, content string) error {
	sess.Messages = append(sess.Messages, Message{Role: role, Content: content})
	if err := s.Save(sess); err != nil {
		sess.Messages = sess.Messages[:len(sess.Messages)-1]
		return err
	}
	return nil
}

// Load reads one session record by id.
func (s *Store) Load(id string) (*Session, error) {
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session record is corrupt: %w", err)
	}
	if err := sess.validate(); err != nil {
		return nil, err
	}
	return &sess, nil
}

// List returns all sessions ordered by UpdatedAt descending. Corrupt
// records are skipped so one bad file never hides the rest.
func (s *Store) List() ([]*Session, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessions []*Session
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		sess, err := s.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		sessions = append(sessions, sess)
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt > sessions[j].UpdatedAt
	})
	return sessions, nil
}

// Delete removes the session record from disk.
func (s *Store) Delete(id string) error {
	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Export writes a human-readable transcript of the session to dest.
func (s *Store) Export(id, dest string) error {
	sess, err := s.Load(id)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\n", sess.Title)
	fmt.Fprintf(&b, "Model: %s\n", sess.Model)
	fmt.Fprintf(&b, "Created: %s\n", sess.CreatedAt)
	fmt.Fprintf(&b, "Updated: %s\n", sess.UpdatedAt)
	b.WriteString(strings.Repeat("-", 50) + "\n\n")
	for _, msg := range sess.Messages {
		role := "You"
		if msg.Role == RoleAssistant {
			role = "AI"
		}
		fmt.Fprintf(&b, "%s:\n%s\n\n", role, msg.Content)
	}

	if err := os.WriteFile(dest, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to export session: %w", err)
	}
	return nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *Store) exists(id string) bool {
	_, err := os.Stat(s.path(id))
	return err == nil
}
