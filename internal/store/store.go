// Package store is the persistence collaborator: durable users,
// conversations and messages. The relay treats it as an opaque,
// possibly-failing remote service.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/duetchat/duet/internal/domain"
)

var ErrNotFound = errors.New("not found")

// Store describes the durable state the relay reads and appends to.
type Store interface {
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)

	FindConversation(ctx context.Context, id string) (*domain.Conversation, error)
	FindConversationByParticipants(ctx context.Context, a, b string) (*domain.Conversation, error)
	CreateConversation(ctx context.Context, conv *domain.Conversation) error

	// SaveMessage assigns the message id and persists it.
	SaveMessage(ctx context.Context, msg *domain.Message) error
	UpdateConversationLastMessage(ctx context.Context, convID, msgID string, at time.Time) error

	// FindMissedMessages returns messages addressed to recipient created
	// at or after since, ascending by creation time.
	FindMissedMessages(ctx context.Context, recipient string, since time.Time) ([]domain.Message, error)
}
