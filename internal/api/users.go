package api

import (
	"context"

	"github.com/stayhub/backend/internal/models"
)

// Users exposes the user profile endpoints.
type Users struct {
	c *Client
}

// NewUsers binds the users module to a client.
func NewUsers(c *Client) Users {
	return Users{c: c}
}

// Get fetches a user profile by id.
func (u Users) Get(ctx context.Context, id string) (models.User, error) {
	var user models.User
	if err := u.c.Get(ctx, "/users/"+id, nil, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// UpdateProfile holds the mutable profile fields.
type UpdateProfile struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Update modifies the current user's profile.
func (u Users) Update(ctx context.Context, id string, update UpdateProfile) (models.User, error) {
	var user models.User
	if err := u.c.Put(ctx, "/users/"+id, update, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}
