package app

import (
	"path/filepath"
	"time"

	"github.com/stayhub/backend/internal/api"
	"github.com/stayhub/backend/internal/config"
	"github.com/stayhub/backend/internal/session"
	"github.com/stayhub/backend/internal/store"
)

// ClientKit bundles everything a UI embedding the client side needs: the
// session manager, the authenticated domain modules, and the optimistic
// local stores.
type ClientKit struct {
	Session *session.Manager

	Properties    api.Properties
	Reviews       api.Reviews
	Wishlists     api.Wishlists
	Users         api.Users
	Conversations api.Conversations
	Universities  *api.Universities

	Bookings     *store.BookingStore
	LocalReviews *store.ReviewStore
}

// NewClientKit wires the client side against the given API origin. State is
// persisted under cfg.DataDir.
func NewClientKit(cfg config.Config, apiBaseURL string) *ClientKit {
	creds := session.NewFileCredentialStore(filepath.Join(cfg.DataDir, "credentials.json"))

	// The session manager is the client's token source; constructing the
	// client first and the manager over it keeps a single outbound substrate.
	holder := &tokenHolder{}
	client := api.NewClient(apiBaseURL, holder)
	manager := session.NewManager(client, creds)
	holder.manager = manager

	return &ClientKit{
		Session:       manager,
		Properties:    api.NewProperties(client),
		Reviews:       api.NewReviews(client),
		Wishlists:     api.NewWishlists(client),
		Users:         api.NewUsers(client),
		Conversations: api.NewConversations(client),
		Universities:  api.NewUniversities(client, 15*time.Minute),
		Bookings:      store.NewBookingStore(store.NewFileSlot(cfg.DataDir, store.BookingSlotKey)),
		LocalReviews:  store.NewReviewStore(store.NewFileSlot(cfg.DataDir, store.ReviewSlotKey)),
	}
}

// tokenHolder breaks the construction cycle between the client and the
// session manager that feeds it tokens.
type tokenHolder struct {
	manager *session.Manager
}

func (h *tokenHolder) AccessToken() string {
	if h.manager == nil {
		return ""
	}
	return h.manager.AccessToken()
}
