package metrics

import (
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Booking counts lifecycle outcomes. It satisfies booking.Recorder.
type Booking struct {
	scheduled prometheus.Counter
	conflicts prometheus.Counter
	updates   *prometheus.CounterVec
}

func NewBooking(reg prometheus.Registerer) *Booking {
	factory := promauto.With(reg)
	return &Booking{
		scheduled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "barberbook",
			Name:      "appointments_scheduled_total",
			Help:      "Appointments successfully scheduled.",
		}),
		conflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "barberbook",
			Name:      "appointment_conflicts_total",
			Help:      "Schedule or reschedule attempts rejected because the slot was taken.",
		}),
		updates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barberbook",
			Name:      "appointment_updates_total",
			Help:      "Applied appointment updates by resulting status.",
		}, []string{"status"}),
	}
}

func (b *Booking) Scheduled() { b.scheduled.Inc() }

func (b *Booking) Conflict() { b.conflicts.Inc() }

func (b *Booking) Updated(status model.Status) {
	b.updates.WithLabelValues(string(status)).Inc()
}
