package booking

import (
	"context"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/scheduling"
)

// FindConflict returns the first non-canceled appointment of providerID whose
// slot overlaps candidate. The appointment with id excludeID, if any, is
// ignored so an appointment never conflicts with itself.
func FindConflict(ctx context.Context, finder AppointmentFinder, providerID string, candidate scheduling.Interval, excludeID string) (model.Appointment, bool, error) {
	existing, err := finder.ActiveAppointments(ctx, providerID, candidate)
	if err != nil {
		return model.Appointment{}, false, err
	}
	for _, appt := range existing {
		if excludeID != "" && appt.ID == excludeID {
			continue
		}
		if !appt.Status.Occupies() || appt.ProviderID != providerID {
			continue
		}
		if candidate.Overlaps(scheduling.Interval{Start: appt.Date, End: appt.EndTime}) {
			return appt, true, nil
		}
	}
	return model.Appointment{}, false, nil
}

func HasConflict(ctx context.Context, finder AppointmentFinder, providerID string, candidate scheduling.Interval, excludeID string) (bool, error) {
	_, found, err := FindConflict(ctx, finder, providerID, candidate, excludeID)
	return found, err
}
