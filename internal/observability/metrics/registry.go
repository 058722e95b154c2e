package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
)

const namespace = "assetgrid"

type actionKey struct {
	component string
	action    string
}

// Registry holds the in-process counters exposed on the metrics endpoint.
type Registry struct {
	mu       sync.Mutex
	requests map[requestKey]uint64
	errors   map[routeKey]uint64
	latency  map[routeKey]*histogram
	actions  map[actionKey]uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		requests: make(map[requestKey]uint64),
		errors:   make(map[routeKey]uint64),
		latency:  make(map[routeKey]*histogram),
		actions:  make(map[actionKey]uint64),
	}
}

// ObserveComponentAction counts one dispatched journal entry.
func (r *Registry) ObserveComponentAction(component, action string) {
	r.mu.Lock()
	r.actions[actionKey{component: component, action: action}]++
	r.mu.Unlock()
}

// ComponentActions returns the current count for a component action.
func (r *Registry) ComponentActions(component, action string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.actions[actionKey{component: component, action: action}]
}

// Handler exposes the metrics in Prometheus text exposition format.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		_, _ = fmt.Fprint(w, r.render())
	})
}

func (r *Registry) render() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	b.Grow(2048)

	reqKeys := make([]requestKey, 0, len(r.requests))
	for key := range r.requests {
		reqKeys = append(reqKeys, key)
	}
	sort.Slice(reqKeys, func(i, j int) bool {
		a, c := reqKeys[i], reqKeys[j]
		if a.handler != c.handler {
			return a.handler < c.handler
		}
		if a.method != c.method {
			return a.method < c.method
		}
		return a.code < c.code
	})
	writeHeader(&b, "http_requests_total", "Total number of HTTP requests processed.", "counter")
	for _, key := range reqKeys {
		fmt.Fprintf(&b, "%s_http_requests_total{handler=\"%s\",method=\"%s\",code=\"%s\"} %d\n",
			namespace, escape(key.handler), escape(key.method), escape(key.code), r.requests[key])
	}

	errKeys := sortedRouteKeys(r.errors)
	writeHeader(&b, "http_request_errors_total", "Total number of HTTP requests that resulted in a server error.", "counter")
	for _, key := range errKeys {
		fmt.Fprintf(&b, "%s_http_request_errors_total{handler=\"%s\",method=\"%s\"} %d\n",
			namespace, escape(key.handler), escape(key.method), r.errors[key])
	}

	latKeys := sortedRouteKeys(r.latency)
	writeHeader(&b, "http_request_duration_seconds", "HTTP request duration in seconds.", "histogram")
	for _, key := range latKeys {
		hist := r.latency[key]
		labels := fmt.Sprintf("handler=\"%s\",method=\"%s\"", escape(key.handler), escape(key.method))
		for idx, bound := range hist.buckets {
			fmt.Fprintf(&b, "%s_http_request_duration_seconds_bucket{%s,le=\"%s\"} %d\n",
				namespace, labels, formatFloat(bound), hist.counts[idx])
		}
		fmt.Fprintf(&b, "%s_http_request_duration_seconds_bucket{%s,le=\"+Inf\"} %d\n", namespace, labels, hist.count)
		fmt.Fprintf(&b, "%s_http_request_duration_seconds_sum{%s} %s\n", namespace, labels, formatFloat(hist.sum))
		fmt.Fprintf(&b, "%s_http_request_duration_seconds_count{%s} %d\n", namespace, labels, hist.count)
	}

	actionKeys := make([]actionKey, 0, len(r.actions))
	for key := range r.actions {
		actionKeys = append(actionKeys, key)
	}
	sort.Slice(actionKeys, func(i, j int) bool {
		if actionKeys[i].component != actionKeys[j].component {
			return actionKeys[i].component < actionKeys[j].component
		}
		return actionKeys[i].action < actionKeys[j].action
	})
	writeHeader(&b, "component_actions_total", "Total number of journaled component actions.", "counter")
	for _, key := range actionKeys {
		fmt.Fprintf(&b, "%s_component_actions_total{component=\"%s\",action=\"%s\"} %d\n",
			namespace, escape(key.component), escape(key.action), r.actions[key])
	}

	return b.String()
}

func writeHeader(b *strings.Builder, name, help, kind string) {
	fmt.Fprintf(b, "# HELP %s_%s %s\n", namespace, name, help)
	fmt.Fprintf(b, "# TYPE %s_%s %s\n", namespace, name, kind)
}

func sortedRouteKeys[V any](m map[routeKey]V) []routeKey {
	keys := make([]routeKey, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].handler != keys[j].handler {
			return keys[i].handler < keys[j].handler
		}
		return keys[i].method < keys[j].method
	})
	return keys
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
