package middleware

import (
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics keeps in-process request counters. They are not served over HTTP;
// cmd/api logs a snapshot on shutdown.
type Metrics struct {
	requestsTotal      atomic.Uint64
	requestsInProgress atomic.Int64
	requestsSuccess    atomic.Uint64
	requestsRejected   atomic.Uint64
	requestsFailed     atomic.Uint64
	startTime          time.Time
}

func NewMetrics(now time.Time) *Metrics {
	return &Metrics{startTime: now}
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	RequestsTotal      uint64
	RequestsInProgress int64
	RequestsSuccess    uint64
	RequestsRejected   uint64 // 4xx
	RequestsFailed     uint64 // 5xx
	Uptime             time.Duration
	Goroutines         int
	HeapAllocBytes     uint64
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return MetricsSnapshot{
		RequestsTotal:      m.requestsTotal.Load(),
		RequestsInProgress: m.requestsInProgress.Load(),
		RequestsSuccess:    m.requestsSuccess.Load(),
		RequestsRejected:   m.requestsRejected.Load(),
		RequestsFailed:     m.requestsFailed.Load(),
		Uptime:             time.Since(m.startTime),
		Goroutines:         runtime.NumGoroutine(),
		HeapAllocBytes:     mem.HeapAlloc,
	}
}

// Track counts every request passing through it by outcome class.
func (m *Metrics) Track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.requestsTotal.Add(1)
		m.requestsInProgress.Add(1)
		defer m.requestsInProgress.Add(-1)

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		switch {
		case wrapped.statusCode >= http.StatusInternalServerError:
			m.requestsFailed.Add(1)
		case wrapped.statusCode >= http.StatusBadRequest:
			m.requestsRejected.Add(1)
		default:
			m.requestsSuccess.Add(1)
		}
	})
}
