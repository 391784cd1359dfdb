package chatbot

import (
	"math/rand/v2"
	"sync"
	"time"

	"bww-support-bot/nlp"
)

// Tracker records conversation turns.
type Tracker interface {
	RecordTurn(userID, message string, sender Sender)
}

// RuleInput is what a response rule sees for one inbound message.
type RuleInput struct {
	Message  string
	UserID   string
	Language string
}

// ResponseRule produces the reply text for one intent.
type ResponseRule func(in RuleInput) string

// Dispatcher picks and runs the response rule for a detected intent and
// records both sides of the exchange.
type Dispatcher struct {
	tracker Tracker

	mu  sync.Mutex
	rng *rand.Rand

	rules [nlp.NumIntents]ResponseRule
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithRand sets the randomness source for multi-template pools.
func WithRand(rng *rand.Rand) DispatcherOption {
	return func(d *Dispatcher) {
		if rng != nil {
			d.rng = rng
		}
	}
}

// WithRule replaces the response rule of intent. IntentNone sets the
// fallback rule.
func WithRule(intent nlp.Intent, rule ResponseRule) DispatcherOption {
	return func(d *Dispatcher) {
		if rule != nil && int(intent) < nlp.NumIntents {
			d.rules[intent] = rule
		}
	}
}

// NewDispatcher builds a dispatcher that records turns in tracker.
func NewDispatcher(tracker Tracker, opts ...DispatcherOption) *Dispatcher {
	seed := uint64(time.Now().UnixNano())
	d := &Dispatcher{
		tracker: tracker,
		rng:     rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
	for idx := range d.rules {
		d.rules[idx] = d.templateRule(replyTemplates[idx])
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// templateRule returns a rule choosing uniformly from pool
func (d *Dispatcher) templateRule(pool []string) ResponseRule {
	if len(pool) == 1 {
		reply := pool[0]
		return func(RuleInput) string { return reply }
	}
	return func(RuleInput) string {
		d.mu.Lock()
		idx := d.rng.IntN(len(pool))
		d.mu.Unlock()
		return pool[idx]
	}
}

// GenerateResponse records message as a user turn, produces the reply for
// intent (or the clarification reply when intent is not a known intent),
// and records the reply as a bot turn.
func (d *Dispatcher) GenerateResponse(message, userID string, intent nlp.Intent, language string) string {
	d.tracker.RecordTurn(userID, message, SenderUser)

	if !intent.Valid() {
		intent = nlp.IntentNone
	}
	response := d.rules[intent](RuleInput{
		Message:  message,
		UserID:   userID,
		Language: language,
	})

	d.tracker.RecordTurn(userID, response, SenderBot)
	return response
}
