package api

import (
	"context"

	"github.com/stayhub/backend/internal/models"
)

// Conversations exposes the guest/host messaging endpoints.
type Conversations struct {
	c *Client
}

// NewConversations binds the conversations module to a client.
func NewConversations(c *Client) Conversations {
	return Conversations{c: c}
}

// List fetches the current user's conversations.
func (m Conversations) List(ctx context.Context) ([]models.Conversation, error) {
	var conversations []models.Conversation
	if err := m.c.Get(ctx, "/conversations", nil, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// Messages fetches the messages within a conversation.
func (m Conversations) Messages(ctx context.Context, conversationID string) ([]models.Message, error) {
	var messages []models.Message
	if err := m.c.Get(ctx, "/conversations/"+conversationID+"/messages", nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// Send posts a message into a conversation.
func (m Conversations) Send(ctx context.Context, conversationID, body string) (models.Message, error) {
	payload := map[string]string{"body": body}
	var message models.Message
	if err := m.c.Post(ctx, "/conversations/"+conversationID+"/messages", payload, &message); err != nil {
		return models.Message{}, err
	}
	return message, nil
}
