package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards a bytes.Buffer for concurrent spinner writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerWritesFrames(t *testing.T) {
	var buf syncBuffer
	s := newSpinner(context.Background(), &buf, "passing")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if !strings.Contains(buf.String(), "passing") {
		t.Errorf("output %q does not contain the message", buf.String())
	}
	if s.Cancelled() {
		t.Error("Stop should not count as cancellation")
	}
}

func TestSpinnerCancelledByContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var buf syncBuffer
	s := newSpinner(ctx, &buf, "waiting")
	s.Start()
	cancel()
	s.Stop()

	if !s.Cancelled() {
		t.Error("spinner should report cancellation")
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	var buf syncBuffer
	s := newSpinner(context.Background(), &buf, "stop")
	s.Start()
	s.Stop()
	s.Stop()
	s.StopWithSuccess("done")

	if !strings.Contains(buf.String(), "done") {
		t.Errorf("output %q missing success line", buf.String())
	}
}

func TestSpinnerStopWithError(t *testing.T) {
	var buf syncBuffer
	s := newSpinner(context.Background(), &buf, "render")
	s.Start()
	s.StopWithError("failed %d", 2)

	if !strings.Contains(buf.String(), "failed 2") {
		t.Errorf("output %q missing error line", buf.String())
	}
}
