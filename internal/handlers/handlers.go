// Package handlers contains the HTTP handlers for the API.
package handlers

import (
	"github.com/ripple-app/backend/internal/auth"
	"github.com/ripple-app/backend/internal/moderation"
	"github.com/ripple-app/backend/internal/realtime"
	"github.com/ripple-app/backend/internal/storage"
)

// Handlers bundles the dependencies every endpoint shares. The notifier
// may be nil in tests; realtime delivery is always fire-and-forget.
type Handlers struct {
	auth       *auth.Service
	notifier   *realtime.Notifier
	classifier moderation.Classifier
	uploader   storage.Uploader
}

// NewHandlers creates a new handlers instance.
func NewHandlers(authService *auth.Service, notifier *realtime.Notifier, classifier moderation.Classifier) *Handlers {
	return &Handlers{
		auth:       authService,
		notifier:   notifier,
		classifier: classifier,
	}
}

// SetUploader wires the media uploader. Left unset, upload endpoints
// reject with 503.
func (h *Handlers) SetUploader(uploader storage.Uploader) {
	h.uploader = uploader
}
