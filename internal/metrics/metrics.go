// Package metrics exposes Prometheus counters for menu and transport activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "inline_menu_bot"

// IncrementalCounter is a labelled counter.
type IncrementalCounter interface {
	Increment(val ...string)
}

var _ IncrementalCounter = (*Counter)(nil)

// Counter wraps a CounterVec.
type Counter struct {
	Name string
	Help string

	vec *prometheus.CounterVec
}

// Increment bumps the series identified by the label values.
func (c *Counter) Increment(val ...string) {
	c.vec.WithLabelValues(val...).Inc()
}

// NewCounter creates and registers a counter vector on reg.
func NewCounter(reg prometheus.Registerer, name, help string, labels ...string) *Counter {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, labels)

	reg.MustRegister(vec)

	return &Counter{
		Name: name,
		Help: help,
		vec:  vec,
	}
}

// Recorder collects the bot's counters. It satisfies menu.Observer.
type Recorder struct {
	registry *prometheus.Registry

	renders    *Counter
	dispatches *Counter
	updates    *Counter
	deliveries *Counter
}

// NewRecorder builds a Recorder backed by its own registry, including the Go
// runtime and process collectors.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return newRecorder(reg)
}

func newRecorder(reg *prometheus.Registry) *Recorder {
	return &Recorder{
		registry:   reg,
		renders:    NewCounter(reg, "menu_render_total", "Menu renders by result.", "result"),
		dispatches: NewCounter(reg, "menu_dispatch_total", "Button presses by outcome.", "result"),
		updates:    NewCounter(reg, "telegram_updates_total", "Telegram updates received by type.", "type"),
		deliveries: NewCounter(reg, "telegram_deliveries_total", "Outbound message operations by method and result.", "method", "result"),
	}
}

// ObserveRender counts one render.
func (r *Recorder) ObserveRender(result string) {
	if r == nil {
		return
	}
	r.renders.Increment(result)
}

// ObserveDispatch counts one dispatch.
func (r *Recorder) ObserveDispatch(result string) {
	if r == nil {
		return
	}
	r.dispatches.Increment(result)
}

// ObserveUpdate counts one inbound update.
func (r *Recorder) ObserveUpdate(kind string) {
	if r == nil {
		return
	}
	r.updates.Increment(kind)
}

// ObserveDelivery counts one outbound Bot API call.
func (r *Recorder) ObserveDelivery(method string, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.deliveries.Increment(method, result)
}

// Handler serves the recorder's metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return HandlerFor(r.registry)
}

// HandlerFor returns an HTTP handler for serving metrics from reg.
func HandlerFor(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
