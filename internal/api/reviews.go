package api

import (
	"context"

	"github.com/stayhub/backend/internal/models"
)

// Reviews exposes the server-side review endpoints. The optimistic local
// review store is separate; this module reads and writes the durable copies.
type Reviews struct {
	c *Client
}

// NewReviews binds the reviews module to a client.
func NewReviews(c *Client) Reviews {
	return Reviews{c: c}
}

// ForProperty fetches all reviews for a property.
func (r Reviews) ForProperty(ctx context.Context, propertyID string) ([]models.Review, error) {
	var reviews []models.Review
	if err := r.c.Get(ctx, "/properties/"+propertyID+"/reviews", nil, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// Create submits a new review.
func (r Reviews) Create(ctx context.Context, review models.Review) (models.Review, error) {
	var created models.Review
	if err := r.c.Post(ctx, "/reviews", review, &created); err != nil {
		return models.Review{}, err
	}
	return created, nil
}
