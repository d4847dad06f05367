package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

type dripKey struct {
	network string
	outcome string
}

type requestKey struct {
	outcome string
}

type httpKey struct {
	handler string
	method  string
	code    string
}

type histogram struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type collector struct {
	mu       sync.Mutex
	drips    map[dripKey]uint64
	requests map[requestKey]uint64
	duration *histogram
	http     map[httpKey]uint64
}

var faucetCollector = &collector{
	drips:    make(map[dripKey]uint64),
	requests: make(map[requestKey]uint64),
	duration: newHistogram(),
	http:     make(map[httpKey]uint64),
}

// ObserveDrip counts one per-network disbursement attempt by outcome
// (success, failed, pending, unknown, dispatch_error).
func ObserveDrip(network, outcome string) {
	faucetCollector.mu.Lock()
	defer faucetCollector.mu.Unlock()
	faucetCollector.drips[dripKey{network: network, outcome: outcome}]++
}

// ObserveRequest counts one handled user request and records its duration.
func ObserveRequest(outcome string, duration time.Duration) {
	faucetCollector.mu.Lock()
	defer faucetCollector.mu.Unlock()
	faucetCollector.requests[requestKey{outcome: outcome}]++
	faucetCollector.duration.observe(duration.Seconds())
}

// ObserveHTTPRequest records metrics about an HTTP request lifecycle.
func ObserveHTTPRequest(handler, method string, status int) {
	faucetCollector.mu.Lock()
	defer faucetCollector.mu.Unlock()
	faucetCollector.http[httpKey{handler: handler, method: method, code: strconv.Itoa(status)}]++
}

func newHistogram() *histogram {
	// Request durations are dominated by confirmation polling, so the
	// buckets run well past the default poll interval.
	buckets := []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) observe(value float64) {
	h.count++
	h.sum += value
	for idx, bound := range h.buckets {
		if value <= bound {
			for i := idx; i < len(h.counts); i++ {
				h.counts[i]++
			}
			break
		}
	}
}

// Handler exposes the metrics in Prometheus text exposition format.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		_, _ = fmt.Fprint(w, faucetCollector.render())
	})
}

func (c *collector) render() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var builder strings.Builder
	builder.Grow(1024)

	type dripMetric struct {
		dripKey
		value uint64
	}
	drips := make([]dripMetric, 0, len(c.drips))
	for key, value := range c.drips {
		drips = append(drips, dripMetric{dripKey: key, value: value})
	}
	sort.Slice(drips, func(i, j int) bool {
		if drips[i].network == drips[j].network {
			return drips[i].outcome < drips[j].outcome
		}
		return drips[i].network < drips[j].network
	})

	builder.WriteString("# HELP dripd_drips_total Total number of per-network disbursement attempts.\n")
	builder.WriteString("# TYPE dripd_drips_total counter\n")
	for _, metric := range drips {
		builder.WriteString(fmt.Sprintf("dripd_drips_total{network=\"%s\",outcome=\"%s\"} %d\n",
			escape(metric.network), escape(metric.outcome), metric.value))
	}

	type requestMetric struct {
		requestKey
		value uint64
	}
	requests := make([]requestMetric, 0, len(c.requests))
	for key, value := range c.requests {
		requests = append(requests, requestMetric{requestKey: key, value: value})
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].outcome < requests[j].outcome
	})

	builder.WriteString("# HELP dripd_requests_total Total number of handled user requests.\n")
	builder.WriteString("# TYPE dripd_requests_total counter\n")
	for _, metric := range requests {
		builder.WriteString(fmt.Sprintf("dripd_requests_total{outcome=\"%s\"} %d\n",
			escape(metric.outcome), metric.value))
	}

	builder.WriteString("# HELP dripd_request_duration_seconds End-to-end user request duration in seconds.\n")
	builder.WriteString("# TYPE dripd_request_duration_seconds histogram\n")
	for idx, bound := range c.duration.buckets {
		builder.WriteString(fmt.Sprintf("dripd_request_duration_seconds_bucket{le=\"%s\"} %d\n",
			formatFloat(bound), c.duration.counts[idx]))
	}
	builder.WriteString(fmt.Sprintf("dripd_request_duration_seconds_bucket{le=\"+Inf\"} %d\n", c.duration.count))
	builder.WriteString(fmt.Sprintf("dripd_request_duration_seconds_sum %s\n", formatFloat(c.duration.sum)))
	builder.WriteString(fmt.Sprintf("dripd_request_duration_seconds_count %d\n", c.duration.count))

	type httpMetric struct {
		httpKey
		value uint64
	}
	https := make([]httpMetric, 0, len(c.http))
	for key, value := range c.http {
		https = append(https, httpMetric{httpKey: key, value: value})
	}
	sort.Slice(https, func(i, j int) bool {
		if https[i].handler == https[j].handler {
			if https[i].method == https[j].method {
				return https[i].code < https[j].code
			}
			return https[i].method < https[j].method
		}
		return https[i].handler < https[j].handler
	})

	builder.WriteString("# HELP dripd_http_requests_total Total number of HTTP requests processed.\n")
	builder.WriteString("# TYPE dripd_http_requests_total counter\n")
	for _, metric := range https {
		builder.WriteString(fmt.Sprintf("dripd_http_requests_total{handler=\"%s\",method=\"%s\",code=\"%s\"} %d\n",
			escape(metric.handler), escape(metric.method), escape(metric.code), metric.value))
	}

	return builder.String()
}

func escape(value string) string {
	value = strings.ReplaceAll(value, "\\", "\\\\")
	value = strings.ReplaceAll(value, "\"", "\\\"")
	value = strings.ReplaceAll(value, "\n", "")
	return value
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
