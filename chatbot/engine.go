package chatbot

import (
	"bww-support-bot/nlp"
)

// DefaultLanguage is assumed when a request carries no language tag.
const DefaultLanguage = "ar"

// Request is one inbound chat message.
type Request struct {
	UserID   string
	Message  string
	Language string
	// Intent, when set to a known intent, skips detection.
	Intent nlp.Intent
}

// Reply is the outcome of processing one message.
type Reply struct {
	Response   string            `json:"response"`
	Intent     nlp.Intent        `json:"intent"`
	HasIntent  bool              `json:"-"`
	Language   string            `json:"language"`
	Normalized string            `json:"normalized"`
	Params     map[string]string `json:"params"`
	Entities   nlp.Entities      `json:"entities"`
}

// Engine runs the normalize, classify and dispatch pipeline.
type Engine struct {
	normalizer *nlp.Normalizer
	classifier *nlp.Classifier
	history    *HistoryStore
	dispatcher *Dispatcher
}

// NewEngine wires the pipeline components. The engine builds its own
// dispatcher on history so replies and History always share one store.
func NewEngine(normalizer *nlp.Normalizer, classifier *nlp.Classifier, history *HistoryStore, opts ...DispatcherOption) *Engine {
	return &Engine{
		normalizer: normalizer,
		classifier: classifier,
		history:    history,
		dispatcher: NewDispatcher(history, opts...),
	}
}

// NewDefaultEngine builds an engine with the built-in Egyptian tables and a
// history of historySize turns per user.
func NewDefaultEngine(historySize int, opts ...DispatcherOption) *Engine {
	normalizer := nlp.NewDefaultNormalizer()
	classifier, err := nlp.NewClassifier(nlp.DefaultIntentRules(), nlp.WithNormalizer(normalizer))
	if err != nil {
		panic(err)
	}
	return NewEngine(normalizer, classifier, NewHistoryStore(historySize), opts...)
}

// Analyze normalizes and classifies text without touching any history.
func (e *Engine) Analyze(text string) Reply {
	normalized := e.normalizer.Normalize(text)
	intent, ok := e.classifier.DetectIntent(normalized)
	return Reply{
		Intent:     intent,
		HasIntent:  ok,
		Normalized: normalized,
		Params:     nlp.ExtractIntentParams(text, intent),
		Entities:   nlp.ExtractEntities(text),
	}
}

// Process handles one message end to end and updates the user's history.
func (e *Engine) Process(req Request) Reply {
	language := req.Language
	if language == "" {
		language = DefaultLanguage
	}

	reply := e.Analyze(req.Message)
	if req.Intent.Valid() {
		reply.Intent = req.Intent
		reply.HasIntent = true
		reply.Params = nlp.ExtractIntentParams(req.Message, req.Intent)
	}

	reply.Language = language
	reply.Response = e.dispatcher.GenerateResponse(reply.Normalized, req.UserID, reply.Intent, language)
	return reply
}

// History returns the user's recent turns, oldest first.
func (e *Engine) History(userID string) []Turn {
	return e.history.History(userID)
}

// ClearHistory forgets the user's conversation.
func (e *Engine) ClearHistory(userID string) {
	e.history.ClearHistory(userID)
}
