package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusMetricsRecorder(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	svc := NewInMemoryService(NewDefaultRulesEngine(), WithMetricsRecorder(rec))

	a, _, _ := svc.CreateLeaf(ctx, "a", 0, 1)
	b, _, _ := svc.CreateLeaf(ctx, "b", 1, 1)
	if _, _, err := svc.CreateProduct(ctx, "p", []DistributionID{a.ID, b.ID}); err != nil {
		t.Fatalf("create product: %v", err)
	}
	if _, err := svc.DeleteDistribution(ctx, 42); err == nil {
		t.Fatalf("expected delete failure")
	}
	if _, err := svc.DeleteDistribution(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if got := testutil.ToFloat64(rec.results.WithLabelValues(OpCreateLeaf, "success")); got != 2 {
		t.Fatalf("expected 2 successful create_leaf, got %v", got)
	}
	if got := testutil.ToFloat64(rec.results.WithLabelValues(OpDeleteDistribution, "error")); got != 1 {
		t.Fatalf("expected 1 failed delete, got %v", got)
	}
	if got := testutil.ToFloat64(rec.distributions); got != 2 {
		t.Fatalf("expected 2 distributions, got %v", got)
	}
	if got := testutil.ToFloat64(rec.stale); got != 1 {
		t.Fatalf("expected 1 stale product, got %v", got)
	}
	if got := testutil.CollectAndCount(rec.duration); got != 3 {
		t.Fatalf("expected histograms for 3 operations, got %d", got)
	}

	expected := `
# HELP pdfcore_propagation_stale_products Products left frozen by the last pass because a parent is missing.
# TYPE pdfcore_propagation_stale_products gauge
pdfcore_propagation_stale_products 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "pdfcore_propagation_stale_products"); err != nil {
		t.Fatalf("gather: %v", err)
	}

	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if _, err := NewPrometheusMetricsRecorder(nil); err != nil {
		t.Fatalf("nil registerer: %v", err)
	}
}

func TestJSONTracerWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	_, span := tracer.Start(context.Background(), "ok")
	span.End(nil)
	_, span = tracer.Start(context.Background(), "bad")
	span.End(errors.New("boom"))

	entries := tracer.Entries()
	if len(entries) != 2 || entries[0].Status != "success" || entries[1].Status != "error" || entries[1].Error != "boom" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 json lines, got %q", buf.String())
	}
	var decoded JSONTraceEntry
	if err := json.Unmarshal([]byte(lines[1]), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Operation != "bad" {
		t.Fatalf("unexpected decoded entry %+v", decoded)
	}

	silent := NewJSONTracer(nil)
	_, span = silent.Start(context.Background(), "quiet")
	span.End(nil)
	if len(silent.Entries()) != 1 {
		t.Fatalf("nil writer must still retain spans")
	}
}

func TestLogAuditRecorder(t *testing.T) {
	logger := &captureLogger{}
	svc := NewInMemoryService(NewDefaultRulesEngine(), WithAuditRecorder(LogAuditRecorder{Logger: logger}))
	if _, err := svc.EnsureDefault(context.Background()); err != nil {
		t.Fatalf("ensure default: %v", err)
	}
	if op, ok := logger.attr("info", "audit", "operation"); !ok || op != OpEnsureDefault {
		t.Fatalf("expected audit log for ensure_default, got %q", op)
	}
	LogAuditRecorder{}.Record(context.Background(), AuditEntry{Operation: "x"})
}
