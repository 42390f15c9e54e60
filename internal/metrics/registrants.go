package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(statusCorrections, registrantWrites, filterCache, jobsPublished, renewalsNotified)
}

var (
	statusCorrections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_status_corrections_total",
			Help: "Stored status labels found stale on read, by write-back outcome.",
		},
		[]string{"outcome"},
	)

	registrantWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_registrant_writes_total",
			Help: "Registrant writes by operation and result.",
		},
		[]string{"op", "result"},
	)

	filterCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_filter_cache_total",
			Help: "Filter option cache lookups by result.",
		},
		[]string{"result"},
	)

	jobsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_email_jobs_total",
			Help: "Email jobs handed to the queue by template and result.",
		},
		[]string{"template", "result"},
	)

	renewalsNotified = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "registry_renewal_reminders_total",
			Help: "Renewal reminders queued by the notifier.",
		},
	)
)

func StatusCorrected(outcome string) { statusCorrections.WithLabelValues(norm(outcome)).Inc() }
func RegistrantWrite(op, result string) { registrantWrites.WithLabelValues(norm(op), norm(result)).Inc() }
func FilterCache(result string) { filterCache.WithLabelValues(norm(result)).Inc() }
func EmailJob(template, result string) { jobsPublished.WithLabelValues(norm(template), norm(result)).Inc() }
func RenewalRemindersQueued(n int) { renewalsNotified.Add(float64(n)) }
