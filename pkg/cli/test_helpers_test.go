package cli

import (
	"io"
	"os"
	"strings"
	"testing"
)

// captureStdout swaps os.Stdout for a pipe so table and JSON output can be
// asserted on. The returned function restores stdout and yields everything
// written while the capture was active. A goroutine drains the pipe as it
// fills, so large outputs cannot wedge the writer.
func captureStdout(t *testing.T) func() string {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("stdout pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w

	var out strings.Builder
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		_, _ = io.Copy(&out, r)
	}()

	return func() string {
		_ = w.Close()
		<-drained
		os.Stdout = orig
		return out.String()
	}
}
