package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/thereayou/voxus-client/internal/models"
)

// GetUser получает профиль пользователя по id
func (c *Client) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), nil, &user, true); err != nil {
		return nil, err
	}
	return &user, nil
}
