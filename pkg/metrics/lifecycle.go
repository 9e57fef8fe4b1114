package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LifecycleMetrics counts state changes applied by the domain services.
type LifecycleMetrics struct {
	transitions *prometheus.CounterVec
	views       *prometheus.CounterVec
	approvals   prometheus.Counter
	photoCopy   *prometheus.CounterVec
}

// NewLifecycleMetrics registers the lifecycle metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	if reg == nil {
		return &LifecycleMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pawhaven",
		Name:      "status_transitions_total",
		Help:      "Status changes applied, by entity and target status.",
	}, []string{"entity", "from", "to"})
	views := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pawhaven",
		Name:      "unique_views_total",
		Help:      "Unique daily views recorded, by object type.",
	}, []string{"object_type"})
	approvals := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pawhaven",
		Name:      "donations_approved_total",
		Help:      "Donations turned into pets.",
	})
	photoCopy := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pawhaven",
		Name:      "donation_photo_copies_total",
		Help:      "Cover photo copies attempted during donation approval.",
	}, []string{"result"})
	reg.MustRegister(transitions, views, approvals, photoCopy)
	return &LifecycleMetrics{
		transitions: transitions,
		views:       views,
		approvals:   approvals,
		photoCopy:   photoCopy,
	}
}

func (m *LifecycleMetrics) Transition(entity, from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(entity), normalizeLabel(from), normalizeLabel(to)).Inc()
}

func (m *LifecycleMetrics) UniqueView(objectType string) {
	if m == nil || m.views == nil {
		return
	}
	m.views.WithLabelValues(normalizeLabel(objectType)).Inc()
}

func (m *LifecycleMetrics) DonationApproved() {
	if m == nil || m.approvals == nil {
		return
	}
	m.approvals.Inc()
}

// PhotoCopy records the outcome of a cover copy; ok=false means it was skipped after an error.
func (m *LifecycleMetrics) PhotoCopy(ok bool) {
	if m == nil || m.photoCopy == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.photoCopy.WithLabelValues(result).Inc()
}
