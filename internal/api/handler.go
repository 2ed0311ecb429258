package api

import (
	"calibration-backend/internal/notification"
	"calibration-backend/internal/store"

	"github.com/SherClockHolmes/webpush-go"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	webpush *webpush.Options
	workers *notification.WorkerPool
}

// NewHandler creates a new API handler. workers may be nil when push is
// not configured.
func NewHandler(s store.Store, webpushOptions *webpush.Options, workers *notification.WorkerPool) *Handler {
	return &Handler{
		store:   s,
		webpush: webpushOptions,
		workers: workers,
	}
}
