package draft

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrDraftNotFound is returned for unknown or already-disposed draft IDs.
var ErrDraftNotFound = errors.New("draft: not found")

// Store holds in-flight drafts keyed by session ID. Drafts are deliberately
// not persisted: the flow's lifecycle is init on entry, mutate, dispose on
// submit or cancel, and an abandoned draft dying with the process is the
// documented behavior.
//
// The mutex guards the maps. Individual drafts are still single-session
// objects; the service does not serialize concurrent mutations of one draft.
type Store struct {
	mu     sync.Mutex
	drafts map[string]*Draft
	direct map[string]*DirectDraft
}

func NewStore() *Store {
	return &Store{
		drafts: make(map[string]*Draft),
		direct: make(map[string]*DirectDraft),
	}
}

// Create opens a new regular draft and returns it.
func (s *Store) Create() *Draft {
	d := New(uuid.NewString())
	s.mu.Lock()
	s.drafts[d.ID] = d
	s.mu.Unlock()
	return d
}

// CreateDirect opens a new brand-shipped draft.
func (s *Store) CreateDirect() *DirectDraft {
	d := NewDirect(uuid.NewString())
	s.mu.Lock()
	s.direct[d.ID] = d
	s.mu.Unlock()
	return d
}

func (s *Store) Get(id string) (*Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[id]
	if !ok {
		return nil, ErrDraftNotFound
	}
	return d, nil
}

func (s *Store) GetDirect(id string) (*DirectDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.direct[id]
	if !ok {
		return nil, ErrDraftNotFound
	}
	return d, nil
}

// Delete disposes a draft (either kind). Unknown IDs are a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.drafts, id)
	delete(s.direct, id)
	s.mu.Unlock()
}
