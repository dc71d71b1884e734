package database

import (
	"encoding/json"
	"log"
	"os"
	"sync"

	"github.com/socraticbse/backend/model"
)

// SnapshotEntry is the flat per-session structure written to the mirror
// file. It exists for inspection and portability; it is never read back
// into the authoritative view.
type SnapshotEntry struct {
	UserID         string                 `json:"user_id"`
	CurrentConcept *model.Concept         `json:"current_concept"`
	Dialogue       []SnapshotTurn         `json:"dialogue"`
	NextQIdx       int                    `json:"next_q_idx"`
	StartedAt      float64                `json:"started_at"`
	LastTurnAt     float64                `json:"last_turn_at"`
	Progress       model.ProgressSnapshot `json:"progress"`
	HintLevel      int                    `json:"hint_level"`
}

// SnapshotTurn mirrors one dialogue turn.
type SnapshotTurn struct {
	Speaker   string  `json:"speaker"`
	Text      string  `json:"text"`
	Timestamp float64 `json:"timestamp"`
}

// SnapshotStore keeps the flat keyed session mirror on disk. Every write is
// best-effort: failures are logged and swallowed so the durable store's
// view never depends on this file. A crash that loses the snapshot file
// loses no information.
type SnapshotStore struct {
	path    string
	mu      sync.Mutex
	entries map[string]SnapshotEntry
}

// NewSnapshotStore opens (or starts) the mirror file at path. Existing
// content is loaded so untouched sessions survive restarts in the mirror,
// but a load failure only resets the mirror, never the system.
func NewSnapshotStore(path string) *SnapshotStore {
	s := &SnapshotStore{
		path:    path,
		entries: make(map[string]SnapshotEntry),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: failed to load session snapshot file: %v", err)
		}
		return s
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		log.Printf("Warning: session snapshot file is malformed, starting fresh: %v", err)
		s.entries = make(map[string]SnapshotEntry)
	}
	return s
}

// Write mirrors one session. Called only after the durable store has
// committed the mutation.
func (s *SnapshotStore) Write(sessionID string, entry SnapshotEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[sessionID] = entry
	s.flushLocked()
}

// Remove drops a session from the mirror (retention cleanup).
func (s *SnapshotStore) Remove(sessionIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range sessionIDs {
		delete(s.entries, id)
	}
	s.flushLocked()
}

func (s *SnapshotStore) flushLocked() {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		log.Printf("Warning: failed to encode session snapshot: %v", err)
		return
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		log.Printf("Warning: failed to write session snapshot: %v", err)
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		log.Printf("Warning: failed to replace session snapshot: %v", err)
	}
}

// Len reports how many sessions the mirror currently holds. Used by tests
// and diagnostics only.
func (s *SnapshotStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
