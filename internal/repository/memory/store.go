// Package memory implements the repository interfaces with in-process state.
// It backs tests and STORE=memory deployments, and honors the same commit
// semantics as the postgres implementation: a Mutate either applies every
// staged write or none of them.
package memory

import (
	"sync"
	"time"

	"github.com/starpool/starpool-backend/internal/models"
	repo "github.com/starpool/starpool-backend/internal/repository"
)

type poolRec struct {
	mu sync.Mutex
	p  models.Pool
}

type profileRec struct {
	mu sync.Mutex
	p  models.Profile
}

// Store holds all maps behind one RWMutex. Pool and profile records carry
// their own mutexes so Mutate serializes per entity, never globally. Lock
// order is pool record -> profile record -> store; nothing acquires the
// other way around.
type Store struct {
	mu           sync.RWMutex
	pools        map[string]*poolRec
	profiles     map[string]*profileRec
	contribs     map[string]*models.Contribution
	poolContribs map[string][]string // poolID -> contribution IDs, insertion order
	userContribs map[string][]string // userID -> contribution IDs, insertion order
	txns         map[string][]models.Transaction
	usedRefs     map[string]string // payment reference -> completed contribution ID
	events       map[string][]models.PoolEvent
}

func NewStore() *Store {
	return &Store{
		pools:        make(map[string]*poolRec),
		profiles:     make(map[string]*profileRec),
		contribs:     make(map[string]*models.Contribution),
		poolContribs: make(map[string][]string),
		userContribs: make(map[string][]string),
		txns:         make(map[string][]models.Transaction),
		usedRefs:     make(map[string]string),
		events:       make(map[string][]models.PoolEvent),
	}
}

func NewRepositories() repo.Repositories {
	s := NewStore()
	return repo.Repositories{
		Pools:         &pools{s},
		Contributions: &contributions{s},
		Profiles:      &profiles{s},
		Transactions:  &transactions{s},
		PoolEvents:    &poolEvents{s},
	}
}

// profileRecFor creates the record on first touch, mirroring the postgres
// INSERT ... ON CONFLICT DO NOTHING upsert.
func (s *Store) profileRecFor(userID string) *profileRec {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.profiles[userID]
	if !ok {
		now := time.Now()
		rec = &profileRec{p: models.Profile{UserID: userID, CreatedAt: now, UpdatedAt: now}}
		s.profiles[userID] = rec
	}
	return rec
}
