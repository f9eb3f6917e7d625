package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	TestsAssembled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toefl_tests_assembled_total",
			Help: "Question sets assembled, by mode",
		},
		[]string{"mode"},
	)

	SubmissionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "toefl_submissions_total",
			Help: "Scored simulation submissions, by mode",
		},
		[]string{"mode"},
	)

	UnmatchedAnswers = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "toefl_unmatched_answers_total",
			Help: "Submitted answers dropped because the question id is unknown",
		},
	)

	RawScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "toefl_raw_score",
			Help:    "Raw total score of submitted attempts",
			Buckets: prometheus.LinearBuckets(0, 10, 15),
		},
		[]string{"mode"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(TestsAssembled)
		prometheus.MustRegister(SubmissionCounter)
		prometheus.MustRegister(UnmatchedAnswers)
		prometheus.MustRegister(RawScore)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
