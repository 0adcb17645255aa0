package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PastaCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "macrobin_pasta_created_total",
			Help: "no. of pastas created",
		},
		[]string{"type"},
	)
	CreateFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "macrobin_create_failed_total",
			Help: "no. of rejected or failed creations",
		},
		[]string{"code"},
	)
	AttachmentBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "macrobin_attachment_bytes_total",
		Help: "decoded attachment bytes written to disk",
	})
	EncryptionOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "macrobin_encryption_operations_total",
			Help: "no. of server-side encryption operations",
		},
		[]string{"target"},
	)
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "macrobin_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)
	RateLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "macrobin_rate_limit_hits_total",
		Help: "no. of rate limit violations",
	})
)
