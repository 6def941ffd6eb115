package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trainbook_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trainbook_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trainbook_bookings_total",
			Help: "Total number of booking requests that created a row",
		},
		[]string{"status", "origin"},
	)

	BookingRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trainbook_booking_rejections_total",
			Help: "Total number of booking requests rejected by a business rule",
		},
		[]string{"reason"},
	)

	BookingCancellationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trainbook_booking_cancellations_total",
			Help: "Total number of booking cancellations",
		},
	)

	WaitlistPromotionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trainbook_waitlist_promotions_total",
			Help: "Total number of waitlist promotions",
		},
	)

	ClassesGeneratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trainbook_classes_generated_total",
			Help: "Total number of classes materialized from template slots",
		},
	)

	RateLimitedRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trainbook_rate_limited_requests_total",
			Help: "Total number of requests rejected by the per-client rate limiter",
		},
	)

	NotificationsQueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trainbook_notifications_queued_total",
			Help: "Total number of notifications queued for dispatch",
		},
		[]string{"type"},
	)

	NotificationQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trainbook_notification_queue_length",
			Help: "Current length of the notification dispatch queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBooking(status, origin string) {
	BookingsTotal.WithLabelValues(status, origin).Inc()
}

func RecordBookingRejection(reason string) {
	BookingRejectionsTotal.WithLabelValues(reason).Inc()
}

func RecordBookingCancellation() {
	BookingCancellationsTotal.Inc()
}

func RecordWaitlistPromotion() {
	WaitlistPromotionsTotal.Inc()
}

func RecordClassesGenerated(n int) {
	ClassesGeneratedTotal.Add(float64(n))
}

func RecordRateLimited() {
	RateLimitedRequestsTotal.Inc()
}

func RecordNotificationQueued(notificationType string) {
	NotificationsQueuedTotal.WithLabelValues(notificationType).Inc()
}
