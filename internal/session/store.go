package session

import (
	"errors"
	"sync"
)

var ErrSessionNotFound = errors.New("exam session not found")

// Store is the in-memory registry of live exam sessions, keyed by session
// id. AttemptState never touches the document store; only its final Result
// does.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*ExamSession
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*ExamSession)}
}

func (st *Store) Add(s *ExamSession) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
}

func (st *Store) Get(id string) (*ExamSession, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (st *Store) Remove(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// ActiveFor returns the user's in-flight (unsubmitted) session for an exam,
// if any. Enforces the single-active-session rule.
func (st *Store) ActiveFor(userID, examID string) (*ExamSession, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, s := range st.sessions {
		if s.User.UserID == userID && s.Exam.ID == examID && !s.Submitted() {
			return s, true
		}
	}
	return nil, false
}
