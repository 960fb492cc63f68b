package reward

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DeadLetter records a reward that could not be delivered.
type DeadLetter struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
	Error     string    `json:"error"`
	Attempts  int       `json:"attempts"`
}

// maxLineBytes bounds a single dead letter line.
const maxLineBytes = 1 << 20

// DeadLetterStore appends failed reward deliveries to a JSONL file.
type DeadLetterStore struct {
	path string
	mu   sync.Mutex
}

// NewDeadLetterStore creates a dead letter store at the given path.
func NewDeadLetterStore(path string) *DeadLetterStore {
	return &DeadLetterStore{path: path}
}

// Append writes a dead letter entry to the JSONL file.
func (s *DeadLetterStore) Append(dl DeadLetter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(dl)
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("create dead letter dir: %w", err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open dead letter file: %w", err)
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

// ReadAll returns all dead letter entries. Unreadable lines are skipped.
func (s *DeadLetterStore) ReadAll() ([]DeadLetter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	var entries []DeadLetter
	for _, l := range lines {
		if l.entry != nil {
			entries = append(entries, *l.entry)
		}
	}
	return entries, nil
}

// Remove drops the entries whose ids are in done. Entries appended since the
// caller's ReadAll are kept, and so are lines that cannot be decoded.
func (s *DeadLetterStore) Remove(done map[string]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.readLocked()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	for _, l := range lines {
		if l.entry != nil && done[l.entry.ID] {
			continue
		}
		buf.Write(l.raw)
		buf.WriteByte('\n')
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("write dead letter file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace dead letter file: %w", err)
	}
	return nil
}

// storedLine is one non-blank line of the file. entry is nil when the line
// does not decode.
type storedLine struct {
	raw   []byte
	entry *DeadLetter
}

func (s *DeadLetterStore) readLocked() ([]storedLine, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var lines []storedLine
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		l := storedLine{raw: append([]byte(nil), raw...)}
		var dl DeadLetter
		if json.Unmarshal(raw, &dl) == nil {
			l.entry = &dl
		}
		lines = append(lines, l)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dead letter file: %w", err)
	}
	return lines, nil
}
