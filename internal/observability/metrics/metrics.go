package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking engine.
type BookingMetrics struct {
	stepsTotal        *prometheus.CounterVec
	appointmentsTotal *prometheus.CounterVec
	conflictsTotal    prometheus.Counter
	slotsOffered      prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		stepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookline",
			Subsystem: "conversation",
			Name:      "steps_total",
			Help:      "Conversation steps handled, by command and outcome",
		}, []string{"command", "outcome"}),
		appointmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookline",
			Subsystem: "appointments",
			Name:      "total",
			Help:      "Appointment lifecycle events",
		}, []string{"event"}),
		conflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bookline",
			Subsystem: "appointments",
			Name:      "booking_conflicts_total",
			Help:      "Double-booking attempts rejected at write time",
		}),
		slotsOffered: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bookline",
			Subsystem: "availability",
			Name:      "slots_offered",
			Help:      "Number of slots offered per time-selection render",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.stepsTotal, m.appointmentsTotal, m.conflictsTotal, m.slotsOffered)
	return m
}

func (m *BookingMetrics) ObserveStep(command, outcome string) {
	if m == nil {
		return
	}
	m.stepsTotal.WithLabelValues(command, outcome).Inc()
}

func (m *BookingMetrics) ObserveAppointment(event string) {
	if m == nil {
		return
	}
	m.appointmentsTotal.WithLabelValues(event).Inc()
}

func (m *BookingMetrics) ObserveConflict() {
	if m == nil {
		return
	}
	m.conflictsTotal.Inc()
}

func (m *BookingMetrics) ObserveSlotsOffered(count int) {
	if m == nil {
		return
	}
	m.slotsOffered.Observe(float64(count))
}
