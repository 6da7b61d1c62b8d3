package api

import (
	"context"

	"github.com/stayhub/backend/internal/models"
)

// Wishlists exposes the saved-property endpoints for the signed-in user.
type Wishlists struct {
	c *Client
}

// NewWishlists binds the wishlists module to a client.
func NewWishlists(c *Client) Wishlists {
	return Wishlists{c: c}
}

// Get fetches the current user's wishlist.
func (w Wishlists) Get(ctx context.Context) (models.Wishlist, error) {
	var list models.Wishlist
	if err := w.c.Get(ctx, "/wishlist", nil, &list); err != nil {
		return models.Wishlist{}, err
	}
	return list, nil
}

// Add saves a property to the wishlist.
func (w Wishlists) Add(ctx context.Context, propertyID string) error {
	body := map[string]string{"propertyId": propertyID}
	return w.c.Post(ctx, "/wishlist", body, nil)
}

// Remove drops a property from the wishlist.
func (w Wishlists) Remove(ctx context.Context, propertyID string) error {
	return w.c.Delete(ctx, "/wishlist/"+propertyID)
}
