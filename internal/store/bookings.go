package store

import (
	"time"

	"github.com/stayhub/backend/internal/models"
)

// BookingSlotKey is the fixed durable-storage key for the booking store.
const BookingSlotKey = "stayhub_bookings"

// BookingInput carries the caller-supplied fields of a new booking.
type BookingInput struct {
	PropertyID string
	CheckIn    string
	CheckOut   string
	Guests     int
	TotalPrice float64
}

// BookingStore is the optimistic booking collection. Bookings are created
// pending, may transition to cancelled, and are never physically deleted.
type BookingStore struct {
	col *Collection[models.Booking]
	now func() time.Time
}

// NewBookingStore constructs the store over the provided slot.
func NewBookingStore(slot Slot) *BookingStore {
	return &BookingStore{
		col: NewCollection[models.Booking](slot),
		now: time.Now,
	}
}

// Add creates a pending booking with a generated id and persists the
// collection.
func (s *BookingStore) Add(input BookingInput) (models.Booking, error) {
	now := s.now()
	booking := models.Booking{
		ID:         NewEntityID(now),
		PropertyID: input.PropertyID,
		CheckIn:    input.CheckIn,
		CheckOut:   input.CheckOut,
		Guests:     input.Guests,
		TotalPrice: input.TotalPrice,
		Status:     models.BookingStatusPending,
		CreatedAt:  now,
	}
	if err := s.col.Append(booking); err != nil {
		return models.Booking{}, err
	}
	return booking, nil
}

// Cancel marks the matching booking cancelled. An unknown id is a silent
// no-op and repeated cancels are idempotent; the collection is persisted
// either way.
func (s *BookingStore) Cancel(id string) error {
	return s.col.Replace(func(b models.Booking) models.Booking {
		if b.ID == id {
			b.Status = models.BookingStatusCancelled
		}
		return b
	})
}

// Get returns the booking with the given id.
func (s *BookingStore) Get(id string) (models.Booking, bool) {
	return s.col.Find(func(b models.Booking) bool { return b.ID == id })
}

// ForProperty returns the bookings held for a property.
func (s *BookingStore) ForProperty(propertyID string) []models.Booking {
	return s.col.Filter(func(b models.Booking) bool { return b.PropertyID == propertyID })
}

// All returns every booking in the collection.
func (s *BookingStore) All() []models.Booking {
	return s.col.Items()
}
