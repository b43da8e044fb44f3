package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounterIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := NewCounter(reg, "test_total", "Test counter.", "kind")

	counter.Increment("a")
	counter.Increment("a")
	counter.Increment("b")

	if got := testutil.ToFloat64(counter.vec.WithLabelValues("a")); got != 2 {
		t.Fatalf("expected a=2, got %v", got)
	}
	if got := testutil.ToFloat64(counter.vec.WithLabelValues("b")); got != 1 {
		t.Fatalf("expected b=1, got %v", got)
	}
}

func TestRecorderCountsObservations(t *testing.T) {
	recorder := newRecorder(prometheus.NewRegistry())

	recorder.ObserveDispatch("rerender")
	recorder.ObserveDispatch("rerender")
	recorder.ObserveDispatch("path_error")
	recorder.ObserveRender("ok")
	recorder.ObserveUpdate("callback_query")
	recorder.ObserveDelivery("editMessageText", nil)
	recorder.ObserveDelivery("sendMessage", errors.New("boom"))

	if got := testutil.ToFloat64(recorder.dispatches.vec.WithLabelValues("rerender")); got != 2 {
		t.Fatalf("expected 2 rerender dispatches, got %v", got)
	}
	if got := testutil.ToFloat64(recorder.dispatches.vec.WithLabelValues("path_error")); got != 1 {
		t.Fatalf("expected 1 path error, got %v", got)
	}
	if got := testutil.ToFloat64(recorder.renders.vec.WithLabelValues("ok")); got != 1 {
		t.Fatalf("expected 1 render, got %v", got)
	}
	if got := testutil.ToFloat64(recorder.updates.vec.WithLabelValues("callback_query")); got != 1 {
		t.Fatalf("expected 1 update, got %v", got)
	}
	if got := testutil.ToFloat64(recorder.deliveries.vec.WithLabelValues("sendMessage", "error")); got != 1 {
		t.Fatalf("expected 1 failed delivery, got %v", got)
	}
	if got := testutil.CollectAndCount(recorder.dispatches.vec); got != 2 {
		t.Fatalf("expected 2 dispatch series, got %d", got)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var recorder *Recorder
	recorder.ObserveDispatch("stay")
	recorder.ObserveRender("ok")
	recorder.ObserveUpdate("message")
	recorder.ObserveDelivery("sendMessage", nil)
}

func TestRecorderHandlerServesMetrics(t *testing.T) {
	recorder := NewRecorder()
	recorder.ObserveDispatch("stay")

	server := httptest.NewServer(recorder.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET metrics returned error: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	if !strings.Contains(string(body), `inline_menu_bot_menu_dispatch_total{result="stay"} 1`) {
		t.Fatalf("expected dispatch counter in output, got:\n%s", body)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Fatalf("expected runtime collector output")
	}
}
