package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/duetchat/duet/internal/domain"
)

// Memory keeps everything in process. Used when no mongo_uri is
// configured and throughout the test suite.
type Memory struct {
	mu            sync.RWMutex
	users         map[string]*domain.User
	conversations map[string]*domain.Conversation
	messages      []domain.Message
}

func NewMemory() *Memory {
	return &Memory{
		users:         make(map[string]*domain.User),
		conversations: make(map[string]*domain.Conversation),
	}
}

// AddUser seeds the directory; the gateway itself never creates users.
func (m *Memory) AddUser(u *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *Memory) FindUserByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) FindUserByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindConversation(_ context.Context, id string) (*domain.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.conversations[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) FindConversationByParticipants(_ context.Context, a, b string) (*domain.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.conversations {
		if (c.Participants[0] == a && c.Participants[1] == b) ||
			(c.Participants[0] == b && c.Participants[1] == a) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CreateConversation(_ context.Context, conv *domain.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now()
	}
	cp := *conv
	m.conversations[conv.ID] = &cp
	return nil
}

func (m *Memory) SaveMessage(_ context.Context, msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *Memory) UpdateConversationLastMessage(_ context.Context, convID, msgID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[convID]
	if !ok {
		return ErrNotFound
	}
	c.LastMessageID = msgID
	c.LastMessageAt = at
	return nil
}

func (m *Memory) FindMissedMessages(_ context.Context, recipient string, since time.Time) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Message
	for _, msg := range m.messages {
		if msg.Recipient == recipient && !msg.CreatedAt.Before(since) {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// MessageCount is a test hook: how many messages have been persisted.
func (m *Memory) MessageCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}
