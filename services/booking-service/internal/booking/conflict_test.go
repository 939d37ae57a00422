package booking

import (
	"context"
	"testing"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/scheduling"
)

type sliceFinder []model.Appointment

func (f sliceFinder) ActiveAppointments(context.Context, string, scheduling.Interval) ([]model.Appointment, error) {
	return f, nil
}

func TestFindConflict(t *testing.T) {
	existing := sliceFinder{
		{ID: "a", ProviderID: providerID, Date: at(9, 0), EndTime: at(9, 30), Status: model.StatusScheduled},
		{ID: "b", ProviderID: providerID, Date: at(10, 0), EndTime: at(10, 30), Status: model.StatusCanceled},
		{ID: "c", ProviderID: "other", Date: at(11, 0), EndTime: at(11, 30), Status: model.StatusScheduled},
		{ID: "d", ProviderID: providerID, Date: at(12, 0), EndTime: at(12, 30), Status: model.StatusClosed},
	}
	slot := func(h, m int) scheduling.Interval { return scheduling.ComputeSlot(at(h, m), 30*time.Minute) }

	cases := []struct {
		name      string
		candidate scheduling.Interval
		excludeID string
		want      string
	}{
		{"overlap", slot(9, 15), "", "a"},
		{"touching end", slot(9, 30), "", ""},
		{"touching start", slot(8, 30), "", ""},
		{"canceled ignored", slot(10, 0), "", ""},
		{"other provider ignored", slot(11, 0), "", ""},
		{"closed still occupies", slot(12, 10), "", "d"},
		{"self excluded", slot(9, 10), "a", ""},
		{"zero length inside", scheduling.ComputeSlot(at(9, 10), 0), "", "a"},
		{"zero length at boundary", scheduling.ComputeSlot(at(9, 30), 0), "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, found, err := FindConflict(context.Background(), existing, providerID, tc.candidate, tc.excludeID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.want == "" && found {
				t.Fatalf("expected no conflict, got %s", got.ID)
			}
			if tc.want != "" && (!found || got.ID != tc.want) {
				t.Fatalf("expected conflict with %s, got %v %s", tc.want, found, got.ID)
			}
		})
	}
}
