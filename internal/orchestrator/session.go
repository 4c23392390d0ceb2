package orchestrator

import (
	"sync"

	"codeport-cli/internal/domain"
)

// Session holds the in-memory state of one loaded project: the file list,
// its analysis, and the run progress. All mutation goes through value
// replacement by file id, so a concurrent reader never observes an entry
// mid-update.
type Session struct {
	mu       sync.RWMutex
	files    []*domain.ProjectFile
	analysis *domain.ProjectAnalysis
	progress int
}

// NewSession wraps a freshly loaded file set. Loading a new project means
// constructing a new session; sessions are never reused.
func NewSession(files []*domain.ProjectFile) *Session {
	return &Session{files: files}
}

// Files returns a snapshot copy of the file list in load order.
func (s *Session) Files() []*domain.ProjectFile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]*domain.ProjectFile, len(s.files))
	copy(snapshot, s.files)
	return snapshot
}

// update replaces the entry matching id with the result of fn applied to
// a copy of it.
func (s *Session) update(id string, fn func(domain.ProjectFile) domain.ProjectFile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, file := range s.files {
		if file.ID == id {
			updated := fn(*file)
			s.files[i] = &updated
			return
		}
	}
}

// SetAnalysis records the project classification for this session.
func (s *Session) SetAnalysis(analysis *domain.ProjectAnalysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analysis = analysis
}

// Analysis returns the recorded classification, or nil.
func (s *Session) Analysis() *domain.ProjectAnalysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analysis
}

// Progress returns the last reported completion percentage.
func (s *Session) Progress() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}

func (s *Session) setProgress(percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = percent
}
