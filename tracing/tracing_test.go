package tracing

import (
	"context"
	"os"
	"path"
	"testing"
)

func TestTracingFile(t *testing.T) {
	fname := path.Join(t.TempDir(), "span_test.txt")

	if err := Init("changegate", "0.0.1", fname); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	ctx, span := StartSpan(context.Background(), "request.submit", "INTERNAL")
	span.WithAttributes(map[string]string{"request.id": "r-1"})
	EndSpan(span, nil)
	_ = ctx

	data, err := os.ReadFile(fname)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("no data written to trace file")
	}
}
