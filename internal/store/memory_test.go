package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duetchat/duet/internal/domain"
)

func TestMemoryUserLookup(t *testing.T) {
	m := NewMemory()
	m.AddUser(&domain.User{ID: "u-1", Username: "alice", Gender: domain.GenderFemale})

	u, err := m.FindUserByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	u, err = m.FindUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)

	_, err = m.FindUserByID(context.Background(), "u-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryConversationLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	conv := &domain.Conversation{Participants: [2]string{"a", "b"}}
	require.NoError(t, m.CreateConversation(ctx, conv))
	require.NotEmpty(t, conv.ID)

	got, err := m.FindConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.Participants, got.Participants)

	// Participant order must not matter.
	got, err = m.FindConversationByParticipants(ctx, "b", "a")
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)

	now := time.Now()
	require.NoError(t, m.UpdateConversationLastMessage(ctx, conv.ID, "m-1", now))
	got, err = m.FindConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "m-1", got.LastMessageID)
	assert.Equal(t, now, got.LastMessageAt)

	assert.ErrorIs(t, m.UpdateConversationLastMessage(ctx, "missing", "m-1", now), ErrNotFound)
}

func TestMemoryMissedMessagesWindowAndOrder(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	now := time.Now()

	// Insert out of order; retrieval must come back ascending.
	for _, age := range []time.Duration{5 * time.Minute, 90 * time.Minute, 30 * time.Minute} {
		require.NoError(t, m.SaveMessage(ctx, &domain.Message{
			Recipient: "u-1",
			Content:   age.String(),
			CreatedAt: now.Add(-age),
		}))
	}
	require.NoError(t, m.SaveMessage(ctx, &domain.Message{
		Recipient: "someone-else",
		CreatedAt: now,
	}))

	got, err := m.FindMissedMessages(ctx, "u-1", now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "30m0s", got[0].Content)
	assert.Equal(t, "5m0s", got[1].Content)
}

func TestMemorySaveMessageAssignsID(t *testing.T) {
	m := NewMemory()
	msg := &domain.Message{Recipient: "u-1", Content: "hi", CreatedAt: time.Now()}
	require.NoError(t, m.SaveMessage(context.Background(), msg))
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, 1, m.MessageCount())
}
