package textfile

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/obsidianstack/wmqprobe/internal/health"
)

const namespace = "wmq"

// Run describes one finished evaluation pass.
type Run struct {
	QueueManager string
	Report       *health.Report
	Started      time.Time
	Duration     time.Duration
}

// Write renders run into a fresh registry and atomically replaces path with
// its text exposition.
func Write(path string, run Run) error {
	reg := prometheus.NewRegistry()
	if err := collect(reg, run); err != nil {
		return fmt.Errorf("textfile: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("textfile: write %s: %w", path, err)
	}
	return nil
}

func collect(reg prometheus.Registerer, run Run) error {
	queueLabels := []string{"qmgr", "queue"}

	depth := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Current number of messages on the queue. Absent when the depth could not be determined.",
	}, queueLabels)
	warning := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_warning_depth",
		Help:      "Configured warning threshold for the queue.",
	}, queueLabels)
	critical := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_critical_depth",
		Help:      "Configured critical threshold for the queue.",
	}, queueLabels)
	queueSeverity := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_severity",
		Help:      "Queue status: 0=OK 1=WARNING 2=CRITICAL 3=UNKNOWN.",
	}, queueLabels)
	checkSeverity := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "check_severity",
		Help:      "Overall status of the last check: 0=OK 1=WARNING 2=CRITICAL 3=UNKNOWN.",
	}, []string{"qmgr"})
	duration := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "check_duration_seconds",
		Help:      "Wall time of the last check.",
	}, []string{"qmgr"})
	lastRun := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "check_last_run_timestamp_seconds",
		Help:      "Unix time the last check started.",
	}, []string{"qmgr"})

	for _, c := range []prometheus.Collector{depth, warning, critical, queueSeverity, checkSeverity, duration, lastRun} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}

	qmgr := run.QueueManager
	for _, res := range run.Report.Results {
		if res.Depth != health.UnknownDepth {
			depth.WithLabelValues(qmgr, res.Queue).Set(float64(res.Depth))
		}
		warning.WithLabelValues(qmgr, res.Queue).Set(float64(res.Warning))
		critical.WithLabelValues(qmgr, res.Queue).Set(float64(res.Critical))
		queueSeverity.WithLabelValues(qmgr, res.Queue).Set(float64(res.Severity))
	}
	checkSeverity.WithLabelValues(qmgr).Set(float64(run.Report.Severity))
	duration.WithLabelValues(qmgr).Set(run.Duration.Seconds())
	if !run.Started.IsZero() {
		lastRun.WithLabelValues(qmgr).Set(float64(run.Started.UnixNano()) / 1e9)
	}
	return nil
}
