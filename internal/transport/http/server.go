// Package http is the JSON boundary of the server. Handlers translate
// requests into service calls and service errors into status codes; all
// business rules live behind the service interfaces.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

type RouterConfig struct {
	Auth         AuthService
	Verifier     TokenVerifier
	Reservations ReservationService
	Availability AvailabilityService
	Log          *slog.Logger
}

// NewRouter wires every route. Authenticated routes sit behind the bearer
// token middleware; registration, login and developer availability browsing
// are public.
func NewRouter(cfg RouterConfig) *mux.Router {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "http"))

	authH := &authHandler{svc: cfg.Auth, log: log}
	bookingsH := &bookingsHandler{svc: cfg.Reservations, log: log}
	availabilityH := &availabilityHandler{svc: cfg.Availability, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", authH.register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authH.login).Methods(http.MethodPost)
	api.HandleFunc("/developers/{id}/availability", availabilityH.listForDeveloper).Methods(http.MethodGet)

	authed := api.NewRoute().Subrouter()
	authed.Use(requireAuth(cfg.Verifier))
	authed.HandleFunc("/bookings", bookingsH.create).Methods(http.MethodPost)
	authed.HandleFunc("/bookings", bookingsH.list).Methods(http.MethodGet)
	authed.HandleFunc("/bookings/{id}/cancel", bookingsH.cancel).Methods(http.MethodPost)
	authed.HandleFunc("/bookings/{id}", bookingsH.delete).Methods(http.MethodDelete)
	authed.HandleFunc("/availability/weekly/{weekday}", availabilityH.replaceWeekday).Methods(http.MethodPut)
	authed.HandleFunc("/availability/ranges", availabilityH.addDateRange).Methods(http.MethodPost)
	authed.HandleFunc("/availability/{id}", availabilityH.remove).Methods(http.MethodDelete)

	return r
}
