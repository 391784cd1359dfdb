// Package chatbot tracks conversations and dispatches templated replies for
// detected support intents.
package chatbot

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// DefaultHistorySize is the number of turns kept per user.
const DefaultHistorySize = 10

const historyShards = 32

// Sender identifies who produced a conversation turn.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Turn is a single message exchanged with a user.
type Turn struct {
	Sender    Sender    `json:"sender"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// turnRing holds the most recent turns of one user in a fixed-size buffer.
type turnRing struct {
	turns []Turn
	start int
	size  int
}

func newTurnRing(capacity int) *turnRing {
	return &turnRing{turns: make([]Turn, capacity)}
}

// push appends a turn, overwriting the oldest one when full
func (r *turnRing) push(t Turn) {
	capacity := len(r.turns)
	if r.size < capacity {
		r.turns[(r.start+r.size)%capacity] = t
		r.size++
		return
	}
	r.turns[r.start] = t
	r.start = (r.start + 1) % capacity
}

func (r *turnRing) snapshot() []Turn {
	out := make([]Turn, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.turns[(r.start+i)%len(r.turns)]
	}
	return out
}

type historyShard struct {
	mu    sync.RWMutex
	users map[string]*turnRing
}

// HistoryStore keeps a bounded, in-memory conversation history per user.
// Users are spread over shards; operations on the same user are serialized
// by the shard lock.
type HistoryStore struct {
	limit  int
	now    func() time.Time
	shards [historyShards]historyShard
}

// HistoryOption configures a HistoryStore.
type HistoryOption func(*HistoryStore)

// WithClock sets the time source used to stamp turns.
func WithClock(now func() time.Time) HistoryOption {
	return func(s *HistoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewHistoryStore creates a store keeping the last limit turns per user.
// A non-positive limit falls back to DefaultHistorySize.
func NewHistoryStore(limit int, opts ...HistoryOption) *HistoryStore {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	s := &HistoryStore{
		limit: limit,
		now:   time.Now,
	}
	for i := range s.shards {
		s.shards[i].users = make(map[string]*turnRing)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HistoryStore) shard(userID string) *historyShard {
	return &s.shards[xxhash.Sum64String(userID)%historyShards]
}

// Limit returns the maximum number of turns kept per user.
func (s *HistoryStore) Limit() int {
	return s.limit
}

// RecordTurn appends a turn to the user's history, creating it on first use
// and evicting the oldest turns beyond the limit.
func (s *HistoryStore) RecordTurn(userID, message string, sender Sender) {
	sh := s.shard(userID)
	turn := Turn{Sender: sender, Message: message, Timestamp: s.now()}

	sh.mu.Lock()
	defer sh.mu.Unlock()

	ring, ok := sh.users[userID]
	if !ok {
		ring = newTurnRing(s.limit)
		sh.users[userID] = ring
	}
	ring.push(turn)
}

// History returns a copy of the user's turns, oldest first. Unknown users
// get an empty slice.
func (s *HistoryStore) History(userID string) []Turn {
	sh := s.shard(userID)

	sh.mu.RLock()
	defer sh.mu.RUnlock()

	ring, ok := sh.users[userID]
	if !ok {
		return []Turn{}
	}
	return ring.snapshot()
}

// ClearHistory drops everything stored for the user. Clearing an unknown
// user is a no-op.
func (s *HistoryStore) ClearHistory(userID string) {
	sh := s.shard(userID)

	sh.mu.Lock()
	delete(sh.users, userID)
	sh.mu.Unlock()
}

// Len returns the number of users with a stored history.
func (s *HistoryStore) Len() int {
	total := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		total += len(sh.users)
		sh.mu.RUnlock()
	}
	return total
}
