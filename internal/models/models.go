package models

import "time"

// User represents an account within the StayHub platform.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Property is a rental listing offered on the platform.
type Property struct {
	ID            string  `json:"id"`
	HostID        string  `json:"hostId"`
	Title         string  `json:"title"`
	Description   string  `json:"description,omitempty"`
	City          string  `json:"city,omitempty"`
	UniversityID  string  `json:"universityId,omitempty"`
	PricePerNight float64 `json:"pricePerNight"`
}

// Booking statuses. Confirmed is reserved for a future server-driven
// confirmation flow; the optimistic store never sets it.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Booking is a stay reservation held in the optimistic booking store.
type Booking struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"propertyId"`
	CheckIn    string    `json:"checkIn"`
	CheckOut   string    `json:"checkOut"`
	Guests     int       `json:"guests"`
	TotalPrice float64   `json:"totalPrice"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Review is a guest rating held in the optimistic review store.
type Review struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"propertyId"`
	UserID     string    `json:"userId"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Wishlist groups the property ids a user has saved.
type Wishlist struct {
	UserID      string   `json:"userId"`
	PropertyIDs []string `json:"propertyIds"`
}

// Conversation is a message thread between a guest and a host.
type Conversation struct {
	ID           string    `json:"id"`
	Participants []string  `json:"participants"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Message is a single entry within a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Body           string    `json:"body"`
	SentAt         time.Time `json:"sentAt"`
}

// University is a campus that listings can be filtered by.
type University struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city,omitempty"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
