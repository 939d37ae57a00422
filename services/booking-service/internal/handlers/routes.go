package handlers

import "net/http"

// Register mounts the booking API on mux.
func Register(mux *http.ServeMux, bookings *BookingHandler, services *ServiceHandler) {
	mux.HandleFunc("POST /api/v1/appointments", bookings.Schedule)
	mux.HandleFunc("PATCH /api/v1/appointments/{id}", bookings.Update)
	mux.HandleFunc("GET /api/v1/appointments/{id}", bookings.Get)
	mux.HandleFunc("GET /api/v1/providers/{id}/appointments", bookings.ListByProvider)

	mux.HandleFunc("GET /api/v1/public/providers", bookings.Providers)
	mux.HandleFunc("GET /api/v1/public/slots", bookings.Slots)
	mux.HandleFunc("GET /api/v1/public/services", services.List)
	mux.HandleFunc("GET /api/v1/public/services/{id}", services.Get)
	mux.HandleFunc("POST /api/v1/services", services.Create)
}
