package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store persists the session state. The backend offers no guarantee
// beyond last-writer-wins; single process assumed.
type Store interface {
	// Load returns the saved state, or defaults when nothing is stored
	// or the stored payload is malformed. It never fails.
	Load() *State
	// Save durably persists the state. Callers log and swallow a
	// returned error; the in-memory state stays authoritative.
	Save(*State) error
}

// FileStore keeps the state as a JSON file, written atomically.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (fs *FileStore) Load() *State {
	b, err := os.ReadFile(fs.path)
	if err != nil {
		return NewState()
	}
	var s State
	if err := json.Unmarshal(b, &s); err != nil || !s.valid() {
		return NewState()
	}
	if s.Achievements == nil {
		s.Achievements = []string{}
	}
	return &s
}

func (fs *FileStore) Save(s *State) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if dir := filepath.Dir(fs.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}

// MemStore is the in-memory fallback used when no state file is
// configured, and by tests.
type MemStore struct {
	state   *State
	SaveErr error // injected by tests
	Saves   int
}

func NewMemStore() *MemStore { return &MemStore{} }

func (ms *MemStore) Load() *State {
	if ms.state == nil {
		return NewState()
	}
	cp := *ms.state
	cp.Achievements = append([]string(nil), ms.state.Achievements...)
	return &cp
}

func (ms *MemStore) Save(s *State) error {
	if ms.SaveErr != nil {
		return ms.SaveErr
	}
	cp := *s
	cp.Achievements = append([]string(nil), s.Achievements...)
	ms.state = &cp
	ms.Saves++
	return nil
}
