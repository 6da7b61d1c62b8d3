package store

import (
	"math"
	"time"

	"github.com/stayhub/backend/internal/models"
)

// ReviewSlotKey is the fixed durable-storage key for the review store.
const ReviewSlotKey = "stayhub_reviews"

// ReviewInput carries the caller-supplied fields of a new review.
type ReviewInput struct {
	PropertyID string
	UserID     string
	Rating     int
	Comment    string
}

// ReviewStore is the optimistic review collection.
type ReviewStore struct {
	col *Collection[models.Review]
	now func() time.Time
}

// NewReviewStore constructs the store over the provided slot.
func NewReviewStore(slot Slot) *ReviewStore {
	return &ReviewStore{
		col: NewCollection[models.Review](slot),
		now: time.Now,
	}
}

// Add creates a review with a generated id and persists the collection.
func (s *ReviewStore) Add(input ReviewInput) (models.Review, error) {
	now := s.now()
	review := models.Review{
		ID:         NewEntityID(now),
		PropertyID: input.PropertyID,
		UserID:     input.UserID,
		Rating:     input.Rating,
		Comment:    input.Comment,
		CreatedAt:  now,
	}
	if err := s.col.Append(review); err != nil {
		return models.Review{}, err
	}
	return review, nil
}

// ForProperty returns the reviews held for a property.
func (s *ReviewStore) ForProperty(propertyID string) []models.Review {
	return s.col.Filter(func(r models.Review) bool { return r.PropertyID == propertyID })
}

// All returns every review in the collection.
func (s *ReviewStore) All() []models.Review {
	return s.col.Items()
}

// AverageRating returns the mean rating for a property rounded to one
// decimal place, and 0 when the property has no reviews.
func (s *ReviewStore) AverageRating(propertyID string) float64 {
	reviews := s.ForProperty(propertyID)
	if len(reviews) == 0 {
		return 0
	}
	var sum int
	for _, r := range reviews {
		sum += r.Rating
	}
	avg := float64(sum) / float64(len(reviews))
	return math.Round(avg*10) / 10
}
