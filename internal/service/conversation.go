// Package service provides the conversation log and the chat orchestration.
package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inside-thenga/thenga/internal/model"
	"github.com/inside-thenga/thenga/pkg/logger"
	"github.com/inside-thenga/thenga/pkg/metrics"
)

// Publisher receives every entry after it has been appended.
type Publisher interface {
	PublishEntry(entry model.Entry) error
}

// ConversationLog is the ordered, in-memory record of chat turns and device events.
// It is safe for concurrent use. Entries are values and are never modified after
// they are appended.
type ConversationLog struct {
	publisher Publisher
	now       func() time.Time
	logger    *logger.Logger

	mu      sync.RWMutex
	entries []model.Entry
}

// NewConversationLog creates an empty log. publisher may be nil.
func NewConversationLog(publisher Publisher, log *logger.Logger) *ConversationLog {
	return &ConversationLog{
		publisher: publisher,
		now:       time.Now,
		logger:    log.Component("history"),
	}
}

// Append stamps e with an id, its type and, when the caller supplied none, the
// current time, then adds it to the end of the log. The stamped entry is returned.
func (s *ConversationLog) Append(e model.Entry) model.Entry {
	h := e.Meta()
	h.ID = uuid.Must(uuid.NewV7()).String()
	if h.Timestamp == "" {
		h.Timestamp = model.Timestamp(s.now())
	}
	stamped := model.Stamp(e, h)

	s.mu.Lock()
	s.entries = append(s.entries, stamped)
	n := len(s.entries)
	s.mu.Unlock()

	metrics.HistoryEntries.Set(float64(n))
	s.logger.Debug("entry appended",
		zap.String("entry_id", h.ID),
		zap.String("type", string(stamped.Kind())),
		zap.Int("size", n),
	)

	if s.publisher != nil {
		if err := s.publisher.PublishEntry(stamped); err != nil {
			s.logger.Warn("failed to publish entry", zap.String("entry_id", h.ID), zap.Error(err))
		}
	}
	return stamped
}

// History returns a snapshot of the log in append order.
func (s *ConversationLog) History() []model.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries.
func (s *ConversationLog) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear empties the log and returns how many entries were removed.
func (s *ConversationLog) Clear() int {
	s.mu.Lock()
	n := len(s.entries)
	s.entries = nil
	s.mu.Unlock()

	metrics.HistoryEntries.Set(0)
	s.logger.Info("history cleared", zap.Int("removed", n))
	return n
}
