package http

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/esantoro/gaphor/internal/logging"
	"github.com/esantoro/gaphor/pkg/domain"
)

// StreamManager handles active SSE connections
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // DocumentID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

func (sm *StreamManager) Subscribe(documentID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[documentID]; !ok {
		sm.subscribers[documentID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[documentID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[documentID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, documentID)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(documentID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[documentID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "document", documentID)
		}
	}
}

// streamEvent is the payload pushed to SSE subscribers.
type streamEvent struct {
	Document string `json:"document"`
	*domain.TransactionEvent
}

// Hooks returns undo manager hooks that broadcast every history change of the
// document to its subscribers.
func (sm *StreamManager) Hooks(documentID string) domain.LifecycleHooks {
	publish := func(ev *domain.TransactionEvent) {
		payload, err := json.Marshal(streamEvent{Document: documentID, TransactionEvent: ev})
		if err != nil {
			sm.logger.Error("SSE: event encode failed", "err", err)
			return
		}
		sm.Broadcast(documentID, string(payload))
	}
	return domain.LifecycleHooks{
		OnBegin:   publish,
		OnCommit:  publish,
		OnDiscard: publish,
		OnUndo:    publish,
		OnRedo:    publish,
		OnClear:   publish,
	}
}
