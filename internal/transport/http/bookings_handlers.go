package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"devbook/backend/internal/domain"
	"devbook/backend/internal/service/reservations"
)

type ReservationService interface {
	Reserve(ctx context.Context, in reservations.ReserveInput) (domain.Booking, error)
	Release(ctx context.Context, bookingID, clientID uuid.UUID) (domain.Booking, error)
	Delete(ctx context.Context, bookingID, clientID uuid.UUID) error
	ListForClient(ctx context.Context, clientID uuid.UUID) ([]domain.Booking, error)
	ListForDeveloper(ctx context.Context, developerID uuid.UUID) ([]domain.Booking, error)
}

type bookingsHandler struct {
	svc ReservationService
	log *slog.Logger
}

func (h *bookingsHandler) create(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req struct {
		DeveloperID string `json:"developer_id"`
		SlotID      string `json:"slot_id"`
		Notes       string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	developerID, err := uuid.Parse(req.DeveloperID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "developer_id must be a valid uuid")
		return
	}
	slotID, err := uuid.Parse(req.SlotID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "slot_id must be a valid uuid")
		return
	}

	booking, err := h.svc.Reserve(r.Context(), reservations.ReserveInput{
		ClientID:    identity.UserID,
		DeveloperID: developerID,
		SlotID:      slotID,
		Notes:       req.Notes,
	})
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"booking": bookingJSON(booking)})
}

func (h *bookingsHandler) cancel(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "booking id must be a valid uuid")
		return
	}

	booking, err := h.svc.Release(r.Context(), bookingID, identity.UserID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "booking cancelled",
		"booking": bookingJSON(booking),
	})
}

func (h *bookingsHandler) delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "booking id must be a valid uuid")
		return
	}

	if err := h.svc.Delete(r.Context(), bookingID, identity.UserID); err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "booking deleted"})
}

func (h *bookingsHandler) list(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var (
		bookings []domain.Booking
		err      error
	)
	switch r.URL.Query().Get("role") {
	case "developer":
		bookings, err = h.svc.ListForDeveloper(r.Context(), identity.UserID)
	case "", "client":
		bookings, err = h.svc.ListForClient(r.Context(), identity.UserID)
	default:
		writeError(w, http.StatusBadRequest, "role must be client or developer")
		return
	}
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	out := make([]map[string]any, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, bookingJSON(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": out})
}

func bookingJSON(b domain.Booking) map[string]any {
	return map[string]any{
		"id":                b.ID.String(),
		"client_id":         b.ClientID.String(),
		"developer_id":      b.DeveloperID.String(),
		"slot_id":           b.SlotID.String(),
		"booked_start_time": b.StartTime.UTC().Format(time.RFC3339),
		"booked_end_time":   b.EndTime.UTC().Format(time.RFC3339),
		"booking_status":    b.Status,
		"notes":             b.Notes,
	}
}
