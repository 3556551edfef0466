package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"devbook/backend/internal/domain"
	"devbook/backend/internal/service/availability"
)

type AvailabilityService interface {
	ReplaceWeekday(ctx context.Context, developerID uuid.UUID, weekday int16, windows []availability.Window) ([]domain.AvailabilitySlot, error)
	AddDateRange(ctx context.Context, developerID uuid.UUID, startDate, endDate time.Time) (domain.AvailabilitySlot, error)
	List(ctx context.Context, developerID uuid.UUID) ([]domain.AvailabilitySlot, error)
	Remove(ctx context.Context, developerID, slotID uuid.UUID) error
}

type availabilityHandler struct {
	svc AvailabilityService
	log *slog.Logger
}

// requireDeveloper guards the slot management endpoints. Clients browse
// availability through the public listing route.
func (h *availabilityHandler) requireDeveloper(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	identity, ok := identityFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return uuid.Nil, false
	}
	if identity.Role != domain.UserRoleDeveloper {
		writeError(w, http.StatusForbidden, "developer role required")
		return uuid.Nil, false
	}
	return identity.UserID, true
}

func (h *availabilityHandler) replaceWeekday(w http.ResponseWriter, r *http.Request) {
	developerID, ok := h.requireDeveloper(w, r)
	if !ok {
		return
	}
	weekday, err := strconv.ParseInt(mux.Vars(r)["weekday"], 10, 16)
	if err != nil {
		writeError(w, http.StatusBadRequest, "weekday must be a number between 0 and 6")
		return
	}

	var req struct {
		Windows []struct {
			StartTime string `json:"start_time"`
			EndTime   string `json:"end_time"`
		} `json:"windows"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	windows := make([]availability.Window, 0, len(req.Windows))
	for _, win := range req.Windows {
		start, err := parseMinutes(win.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start_time must be HH:MM")
			return
		}
		end, err := parseMinutes(win.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end_time must be HH:MM")
			return
		}
		windows = append(windows, availability.Window{StartMinute: start, EndMinute: end})
	}

	slots, err := h.svc.ReplaceWeekday(r.Context(), developerID, int16(weekday), windows)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": slotsJSON(slots)})
}

func (h *availabilityHandler) addDateRange(w http.ResponseWriter, r *http.Request) {
	developerID, ok := h.requireDeveloper(w, r)
	if !ok {
		return
	}

	var req struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	startDate, err := time.ParseInLocation("2006-01-02", req.StartDate, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	endDate, err := time.ParseInLocation("2006-01-02", req.EndDate, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return
	}

	slot, err := h.svc.AddDateRange(r.Context(), developerID, startDate, endDate)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"slot": slotJSON(slot)})
}

func (h *availabilityHandler) listForDeveloper(w http.ResponseWriter, r *http.Request) {
	developerID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "developer id must be a valid uuid")
		return
	}

	slots, err := h.svc.List(r.Context(), developerID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": slotsJSON(slots)})
}

func (h *availabilityHandler) remove(w http.ResponseWriter, r *http.Request) {
	developerID, ok := h.requireDeveloper(w, r)
	if !ok {
		return
	}
	slotID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "slot id must be a valid uuid")
		return
	}

	if err := h.svc.Remove(r.Context(), developerID, slotID); err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "slot removed"})
}

func parseMinutes(s string) (int16, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return int16(t.Hour()*60 + t.Minute()), nil
}

func slotsJSON(slots []domain.AvailabilitySlot) []map[string]any {
	out := make([]map[string]any, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slotJSON(slot))
	}
	return out
}

func slotJSON(slot domain.AvailabilitySlot) map[string]any {
	out := map[string]any{
		"id":           slot.ID.String(),
		"developer_id": slot.DeveloperID.String(),
		"kind":         slot.Kind,
		"is_available": slot.IsAvailable,
	}
	switch slot.Kind {
	case domain.SlotKindRecurringWeekly:
		out["weekday"] = slot.Weekday
		out["start_time"] = formatMinutes(slot.StartMinute)
		out["end_time"] = formatMinutes(slot.EndMinute)
	case domain.SlotKindDateRange:
		out["start_date"] = slot.StartDate.Format("2006-01-02")
		out["end_date"] = slot.EndDate.Format("2006-01-02")
	}
	return out
}

func formatMinutes(m int16) string {
	return time.Date(0, 1, 1, int(m)/60, int(m)%60, 0, 0, time.UTC).Format("15:04")
}
