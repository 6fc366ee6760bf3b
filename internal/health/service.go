// Package health tracks whether each configured index answers. All state is
// in memory and resets on restart.
package health

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lazysearch/lazysearch/internal/index"
)

// MessageUpdate is the broadcast type for status changes.
const MessageUpdate = "health:update"

// Broadcaster defines the interface for sending WebSocket messages.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// Pinger runs the readiness handshake for an index.
type Pinger interface {
	Ping(ctx context.Context, name string) error
}

// Service manages the health state of all tracked indexes.
type Service struct {
	items       map[string]*Item
	mu          sync.RWMutex
	broadcaster Broadcaster
	logger      zerolog.Logger
}

// NewService creates a new health service.
func NewService(logger zerolog.Logger) *Service {
	return &Service{
		items:  make(map[string]*Item),
		logger: logger.With().Str("component", "health").Logger(),
	}
}

// SetBroadcaster sets the receiver of status changes.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster = b
}

// Register starts tracking an index as healthy.
func (s *Service) Register(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; exists {
		return
	}
	s.items[id] = &Item{ID: id, Name: name, Status: StatusOK}
}

// Unregister stops tracking an index.
func (s *Service) Unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

// SetError marks an index as failing.
func (s *Service) SetError(id, code, message string) {
	s.setStatus(id, StatusError, code, message)
}

// SetWarning marks an index as degraded.
func (s *Service) SetWarning(id, code, message string) {
	s.setStatus(id, StatusWarning, code, message)
}

// ClearStatus marks an index as healthy.
func (s *Service) ClearStatus(id string) {
	s.setStatus(id, StatusOK, "", "")
}

// Record sets the status of id from the outcome of a check. Rate limiting is
// a warning; every other failure is an error.
func (s *Service) Record(id string, err error) {
	switch {
	case err == nil:
		s.ClearStatus(id)
	case errors.Is(err, index.ErrRateLimit):
		s.SetWarning(id, index.Code(err), err.Error())
	default:
		s.SetError(id, index.Code(err), err.Error())
	}
}

func (s *Service) setStatus(id string, status Status, code, message string) {
	s.mu.Lock()

	item, exists := s.items[id]
	if !exists {
		s.mu.Unlock()
		s.logger.Warn().Str("id", id).Msg("Attempted to update status for unregistered index")
		return
	}

	now := time.Now()
	item.CheckedAt = &now

	if item.Status == status && item.Message == message {
		s.mu.Unlock()
		return
	}

	oldStatus := item.Status
	item.Status = status
	item.Message = message
	item.Code = code
	if status != StatusOK {
		item.Timestamp = &now
	} else {
		item.Timestamp = nil
	}
	broadcaster := s.broadcaster
	s.mu.Unlock()

	s.logger.Info().
		Str("id", id).
		Str("oldStatus", string(oldStatus)).
		Str("newStatus", string(status)).
		Str("message", message).
		Msg("Health status changed")

	if broadcaster != nil {
		if err := broadcaster.Broadcast(MessageUpdate, UpdatePayload{ID: id, Status: status, Message: message}); err != nil {
			s.logger.Debug().Err(err).Msg("Failed to broadcast health update")
		}
	}
}

// Get returns a copy of one item.
func (s *Service) Get(id string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[id]
	if !exists {
		return Item{}, false
	}
	return *item, true
}

// List returns all items sorted by id.
func (s *Service) List() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

// Summary counts items per status.
func (s *Service) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum Summary
	for _, item := range s.items {
		switch item.Status {
		case StatusOK:
			sum.OK++
		case StatusWarning:
			sum.Warning++
		case StatusError:
			sum.Error++
		}
	}
	sum.HasIssues = sum.Warning > 0 || sum.Error > 0
	return sum
}

// IsHealthy reports whether id is registered and OK.
func (s *Service) IsHealthy(id string) bool {
	item, ok := s.Get(id)
	return ok && item.Status == StatusOK
}

// Check pings every name and records the outcome. It returns the number of
// failing indexes.
func (s *Service) Check(ctx context.Context, pinger Pinger, names []string) int {
	failed := 0
	for _, name := range names {
		s.Register(name, name)
		err := pinger.Ping(ctx, name)
		s.Record(name, err)
		if err != nil {
			failed++
			s.logger.Warn().Err(err).Str("index", name).Msg("Index health check failed")
		}
	}
	return failed
}
