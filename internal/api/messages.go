package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/thereayou/voxus-client/internal/models"
)

type historyResponse struct {
	Messages []models.Message `json:"messages"`
}

// GetMessages получает всю историю публичной комнаты одним запросом
func (c *Client) GetMessages(ctx context.Context, channelID string) ([]models.Message, error) {
	var resp historyResponse
	path := "/messages?channelId=" + url.QueryEscape(channelID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}
	return confirmed(resp.Messages), nil
}

// GetPrivateMessages получает историю личной переписки
func (c *Client) GetPrivateMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	var resp historyResponse
	path := "/messages?conversationId=" + url.QueryEscape(conversationID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}
	return confirmed(resp.Messages), nil
}

// Всё, что пришло из истории, уже сохранено сервером.
func confirmed(msgs []models.Message) []models.Message {
	for i := range msgs {
		msgs[i].State = models.StateConfirmed
	}
	return msgs
}
