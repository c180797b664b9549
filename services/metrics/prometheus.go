package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/classboard/core/roster"
)

const namespace = "classboard"

// SyncRecorder turns roster sync events into prometheus metrics.
type SyncRecorder struct {
	runs       *prometheus.CounterVec
	duration   prometheus.Histogram
	lastOK     prometheus.Gauge
	rows       *prometheus.GaugeVec
	warnings   prometheus.Gauge
	inProgress prometheus.Gauge
}

// NewSyncRecorder registers the sync metrics on reg.
func NewSyncRecorder(reg prometheus.Registerer) (*SyncRecorder, error) {
	r := &SyncRecorder{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Finished roster syncs by result and failure kind.",
		}, []string{"result", "kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of roster syncs.",
			Buckets:   []float64{.25, .5, 1, 2, 5, 10, 20, 30},
		}),
		lastOK: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sync_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful sync.",
		}),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_records",
			Help:      "Records in the current snapshot by collection.",
		}, []string{"collection"}),
		warnings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sync_warnings",
			Help:      "Warnings raised by the last successful sync.",
		}),
		inProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sync_in_progress",
			Help:      "1 while a sync is running.",
		}),
	}
	for _, c := range []prometheus.Collector{r.runs, r.duration, r.lastOK, r.rows, r.warnings, r.inProgress} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Handle is a roster.Subscriber.
func (r *SyncRecorder) Handle(ev roster.Event) {
	switch ev.Kind {
	case roster.SyncStarted:
		r.inProgress.Set(1)
	case roster.SyncSucceeded:
		r.inProgress.Set(0)
		r.runs.WithLabelValues("success", "").Inc()
		r.duration.Observe(ev.Duration.Seconds())
		ts := time.Now()
		if ev.Snapshot.LastSyncedAt != nil {
			ts = *ev.Snapshot.LastSyncedAt
		}
		r.lastOK.Set(float64(ts.Unix()))
		r.Observe(ev.Snapshot)
		r.warnings.Set(float64(len(ev.Warnings)))
	case roster.SyncFailed:
		r.inProgress.Set(0)
		r.runs.WithLabelValues("failure", roster.ErrorKind(ev.Err)).Inc()
		r.duration.Observe(ev.Duration.Seconds())
	}
}

// Observe sets the collection sizes from snap.
func (r *SyncRecorder) Observe(snap roster.Snapshot) {
	r.rows.WithLabelValues("students").Set(float64(len(snap.Students)))
	r.rows.WithLabelValues("tests").Set(float64(len(snap.Tests)))
	r.rows.WithLabelValues("attendance").Set(float64(len(snap.Attendance)))
}
