// Package session keeps per-conversation history with a bounded number of
// retained exchanges.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// DefaultMaxHistory is the number of exchanges retained per session.
const DefaultMaxHistory = 2

// Exchange is one completed question and answer pair.
type Exchange struct {
	Query  string
	Answer string
	At     time.Time
}

// Store holds session histories in memory. Sessions never expire; they
// live for the lifetime of the process. Writes are serialized per session
// id, so different sessions never contend.
type Store struct {
	sessions   *cache.Cache
	locks      sync.Map // session id -> *sync.Mutex
	maxHistory int
}

func NewStore(maxHistory int) *Store {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Store{
		sessions:   cache.New(cache.NoExpiration, 0),
		maxHistory: maxHistory,
	}
}

// Create starts a new empty session and returns its ID.
func (s *Store) Create() string {
	id := uuid.NewString()
	s.sessions.Set(id, []Exchange{}, cache.NoExpiration)
	return id
}

// History returns the retained exchanges for the session, oldest first.
// Unknown IDs yield nil.
func (s *Store) History(id string) []Exchange {
	v, ok := s.sessions.Get(id)
	if !ok {
		return nil
	}
	history := v.([]Exchange)
	out := make([]Exchange, len(history))
	copy(out, history)
	return out
}

// Append records a completed exchange, creating the session if needed and
// dropping the oldest exchanges beyond the retention limit.
func (s *Store) lockFor(id string) *sync.Mutex {
	lk, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return lk.(*sync.Mutex)
}

func (s *Store) Append(id, query, answer string) {
	lk := s.lockFor(id)
	lk.Lock()
	defer lk.Unlock()
	var history []Exchange
	if v, ok := s.sessions.Get(id); ok {
		history = v.([]Exchange)
	}
	history = append(history, Exchange{Query: query, Answer: answer, At: time.Now()})
	if len(history) > s.maxHistory {
		history = history[len(history)-s.maxHistory:]
	}
	s.sessions.Set(id, history, cache.NoExpiration)
}

// Clear removes the session's history but keeps the session usable.
func (s *Store) Clear(id string) {
	lk := s.lockFor(id)
	lk.Lock()
	defer lk.Unlock()
	if _, ok := s.sessions.Get(id); ok {
		s.sessions.Set(id, []Exchange{}, cache.NoExpiration)
	}
}

// Render formats the history for inclusion in a prompt.
func Render(history []Exchange) string {
	if len(history) == 0 {
		return ""
	}
	parts := make([]string, 0, len(history))
	for _, e := range history {
		parts = append(parts, "User: "+e.Query+"\nAssistant: "+e.Answer)
	}
	return strings.Join(parts, "\n")
}
