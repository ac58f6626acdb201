package http

import (
	"encoding/json"
	"mime"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/hlog"

	"github.com/quantonganh/waitlist"
)

// maxSubscriptionBodySize bounds the JSON or form body of a submission
const maxSubscriptionBodySize = 16 << 10

func (s *Server) subscriptionsHandler(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxSubscriptionBodySize)
	req, err := decodeSubscriptionRequest(r)
	if err != nil {
		return NewError(err, http.StatusBadRequest, "Invalid request body")
	}

	sub := waitlist.Submission{
		Email:     req.Email,
		Honeypot:  req.Website,
		UserAgent: req.UserAgent,
	}
	if sub.UserAgent == "" {
		sub.UserAgent = r.UserAgent()
	}
	if req.LoadedAt > 0 {
		sub.LoadedAt = time.UnixMilli(req.LoadedAt)
	}
	if s.PerClientRateLimit {
		sub.Identifier = clientIP(r)
	}

	logger := hlog.FromRequest(r)
	subscription, err := s.SignupService.Admit(r.Context(), sub)

	status := http.StatusOK
	if err != nil {
		status = ErrorStatusCode(waitlist.ErrorCode(err))
		logger.Info().Str("reason", err.Error()).Msg("Submission rejected")
	}
	writeJSONResponse(w, status, waitlist.NewSubscriptionResponse(subscription, err))

	return nil
}

// decodeSubscriptionRequest accepts JSON bodies and plain form posts
func decodeSubscriptionRequest(r *http.Request) (*waitlist.SubscriptionRequest, error) {
	var req waitlist.SubscriptionRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, errors.Wrap(err, "json.Decode")
		}
		return &req, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, errors.Wrap(err, "ParseForm")
	}
	req.Email = r.PostForm.Get("email")
	req.Website = r.PostForm.Get("website")
	req.UserAgent = r.PostForm.Get("userAgent")
	if v := r.PostForm.Get("loadedAt"); v != "" {
		loadedAt, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, errors.Wrap(err, "loadedAt")
		}
		req.LoadedAt = loadedAt
	}

	return &req, nil
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
