package invoice

import (
	"io"
	"sync"
)

// TeeWriter copies every write to a primary and a secondary writer.
// A secondary failure is recorded and the secondary is dropped; the primary keeps receiving bytes.
// A primary failure is returned to the caller.
type TeeWriter struct {
	primary   io.Writer
	secondary io.Writer

	mu      sync.Mutex
	sinkErr error
}

func NewTeeWriter(primary, secondary io.Writer) *TeeWriter {
	return &TeeWriter{primary: primary, secondary: secondary}
}

func (t *TeeWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	if t.sinkErr == nil && t.secondary != nil {
		n, err := t.secondary.Write(p)
		if err == nil && n < len(p) {
			err = io.ErrShortWrite
		}
		if err != nil {
			t.sinkErr = err
		}
	}
	t.mu.Unlock()

	return t.primary.Write(p)
}

// SinkErr returns the first secondary failure, if any.
func (t *TeeWriter) SinkErr() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sinkErr
}
