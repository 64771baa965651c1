package report

import "github.com/prometheus/client_golang/prometheus"

var help = map[string]string{
	"slaves_spawned":  "Slave processes spawned by this worker",
	"jobs_completed":  "Jobs whose slave exited successfully",
	"slave_faults":    "Slaves that exited with an abnormal code",
	"slaves_signaled": "Slaves terminated by a signal",
	"slaves_stopped":  "Slaves stopped by a job-control signal",
	"relays_sent":     "Termination records delivered to the controller",
	"relay_timeouts":  "Termination records abandoned after the relay timeout",
}

// Collector projects the snapshot counters into Prometheus metrics. The
// snapshot stays the source of truth; the collector is a read-only view.
type Collector struct {
	metrics *Metrics
	descs   map[string]*prometheus.Desc
}

// NewCollector creates a Prometheus collector over m.
func NewCollector(m *Metrics) *Collector {
	descs := make(map[string]*prometheus.Desc, len(help))
	for name, h := range help {
		descs[name] = prometheus.NewDesc("procworker_"+name+"_total", h, nil, nil)
	}
	return &Collector{metrics: m, descs: descs}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.descs {
		ch <- d
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for name, value := range c.metrics.Snapshot() {
		ch <- prometheus.MustNewConstMetric(c.descs[name], prometheus.CounterValue, float64(value))
	}
}
