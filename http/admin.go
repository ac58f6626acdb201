package http

import (
	"net/http"

	"github.com/quantonganh/waitlist"
	"github.com/quantonganh/waitlist/pkg/hash"
)

const adminPasswordHeader = "x-admin-password"

func (s *Server) emailsHandler(w http.ResponseWriter, r *http.Request) error {
	if !s.authorized(r) {
		return NewError(nil, http.StatusUnauthorized, "Unauthorized access")
	}

	subscriptions, err := s.SubscriptionService.FindAll(r.Context())
	if err != nil {
		return NewError(err, http.StatusInternalServerError, "Failed to fetch emails")
	}

	entries := make([]waitlist.Entry, 0, len(subscriptions))
	for _, subscription := range subscriptions {
		entries = append(entries, waitlist.NewEntry(subscription))
	}

	writeJSONResponse(w, http.StatusOK, &waitlist.EmailsResponse{
		Success: true,
		Count:   len(entries),
		Emails:  entries,
	})

	return nil
}

// authorized checks the password query parameter, then the header
func (s *Server) authorized(r *http.Request) bool {
	password := r.URL.Query().Get("password")
	if password == "" {
		password = r.Header.Get(adminPasswordHeader)
	}

	if password == "" || s.AdminPassword == "" {
		return false
	}

	return hash.Equal(password, s.AdminPassword, s.hmacKey)
}
