package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/domain"
)

const subscriberBuffer = 32

// Subscriber represents a connected client
type Subscriber struct {
	ID      string
	UserID  uuid.UUID
	Channel chan *domain.Notification
	Done    chan struct{}
}

// RealtimeService fans notifications out to a user's open event streams
type RealtimeService struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
}

// NewRealtimeService creates a new realtime service
func NewRealtimeService() *RealtimeService {
	return &RealtimeService{
		subscribers: make(map[string]*Subscriber),
	}
}

// Subscribe creates a new subscription for a user
func (s *RealtimeService) Subscribe(ctx context.Context, userID uuid.UUID) *Subscriber {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := &Subscriber{
		ID:      uuid.New().String(),
		UserID:  userID,
		Channel: make(chan *domain.Notification, subscriberBuffer),
		Done:    make(chan struct{}),
	}

	s.subscribers[sub.ID] = sub

	go func() {
		select {
		case <-ctx.Done():
			s.Unsubscribe(sub.ID)
		case <-sub.Done:
		}
	}()

	return sub
}

// Unsubscribe removes a subscription
func (s *RealtimeService) Unsubscribe(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub, ok := s.subscribers[id]; ok {
		close(sub.Done)
		close(sub.Channel)
		delete(s.subscribers, id)
	}
}

// Publish sends a notification to every stream of its user
func (s *RealtimeService) Publish(ctx context.Context, n *domain.Notification) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subscribers {
		if sub.UserID != n.UserID {
			continue
		}
		select {
		case sub.Channel <- n:
		default:
			// Slow client, drop
		}
	}
}

// SubscriberCount returns the number of open streams for a user
func (s *RealtimeService) SubscriberCount(userID uuid.UUID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, sub := range s.subscribers {
		if sub.UserID == userID {
			count++
		}
	}
	return count
}

// FormatSSE formats a notification as an SSE frame
func FormatSSE(n *domain.Notification) ([]byte, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}

	frame := make([]byte, 0, len(data)+len(n.Type)+16)
	frame = append(frame, "event: "...)
	frame = append(frame, n.Type...)
	frame = append(frame, "\ndata: "...)
	frame = append(frame, data...)
	return append(frame, '\n', '\n'), nil
}
