package persistence

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/community-sim/internal/engine"
)

// JSONLZstdWriter appends JSON lines to a single zstd-compressed file.
type JSONLZstdWriter struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// NewJSONLZstdWriter creates the file at path, and its directory if needed.
func NewJSONLZstdWriter(path string) (*JSONLZstdWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &JSONLZstdWriter{
		path: path,
		f:    f,
		enc:  enc,
		w:    bufio.NewWriterSize(enc, 64*1024),
	}, nil
}

// Path returns the file being written.
func (w *JSONLZstdWriter) Path() string { return w.path }

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.w == nil {
		return fmt.Errorf("write %s: writer closed", filepath.Base(w.path))
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Close flushes buffered lines and finishes the zstd frame. Closing twice
// is harmless.
func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var err error
	if w.w != nil {
		err = w.w.Flush()
		w.w = nil
	}
	if w.enc != nil {
		if cerr := w.enc.Close(); err == nil {
			err = cerr
		}
		w.enc = nil
	}
	if w.f != nil {
		if cerr := w.f.Close(); err == nil {
			err = cerr
		}
		w.f = nil
	}
	return err
}

// TickLogger writes one JSONL entry per tick (compressed).
type TickLogger struct{ w *JSONLZstdWriter }

// TickLogPath is where the tick log of a run lives under dir.
func TickLogPath(dir, runID string) string {
	return filepath.Join(dir, fmt.Sprintf("ticks-%s.jsonl.zst", runID))
}

// NewTickLogger opens the tick log for a run.
func NewTickLogger(dir, runID string) (*TickLogger, error) {
	w, err := NewJSONLZstdWriter(TickLogPath(dir, runID))
	if err != nil {
		return nil, fmt.Errorf("open tick log: %w", err)
	}
	return &TickLogger{w: w}, nil
}

func (l *TickLogger) WriteTick(rec engine.TickRecord) error { return l.w.Write(rec) }
func (l *TickLogger) Path() string                          { return l.w.Path() }
func (l *TickLogger) Close() error                          { return l.w.Close() }

// ReadTickLog decodes every record of a tick log.
func ReadTickLog(path string) ([]engine.TickRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var out []engine.TickRecord
	for sc.Scan() {
		var rec engine.TickRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return out, fmt.Errorf("%s: line %d: %w", filepath.Base(path), len(out)+1, err)
		}
		out = append(out, rec)
	}
	return out, sc.Err()
}
