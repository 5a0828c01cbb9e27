package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"

	"hoardgen.ai/internal/protocol"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Record is anything the writer can emit: JSON for the jsonl format,
// Summary for text.
type Record interface {
	Summary() string
}

// RecordWriter streams generated records as text lines or JSONL, optionally
// zstd-compressed. JSON lines are checked against the record schemas before
// they are written.
type RecordWriter struct {
	format string

	mu     sync.Mutex
	f      *os.File
	enc    *zstd.Encoder
	w      *bufio.Writer
	closed bool
}

// Open writes to path, or to stdout when path is empty. A ".zst" suffix
// compresses the stream.
func Open(path, format string) (*RecordWriter, error) {
	if strings.TrimSpace(path) == "" {
		return NewRecordWriter(os.Stdout, format, false)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	w, err := NewRecordWriter(f, format, strings.HasSuffix(path, ".zst"))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.f = f
	return w, nil
}

// NewRecordWriter wraps dst. dst is not closed by Close.
func NewRecordWriter(dst io.Writer, format string, compress bool) (*RecordWriter, error) {
	switch format {
	case FormatText, FormatJSON:
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
	rw := &RecordWriter{format: format}
	out := dst
	if compress {
		enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		rw.enc = enc
		out = enc
	}
	rw.w = bufio.NewWriterSize(out, 64*1024)
	return rw, nil
}

func (w *RecordWriter) Write(rec Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("write on closed record writer")
	}

	var line []byte
	if w.format == FormatJSON {
		b, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := protocol.Validate(b); err != nil {
			return err
		}
		line = b
	} else {
		line = []byte(rec.Summary())
	}
	if _, err := w.w.Write(line); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

func (w *RecordWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *RecordWriter) closeLocked() error {
	if w.closed {
		return nil
	}
	w.closed = true
	err1 := w.w.Flush()
	if w.enc != nil {
		if err := w.enc.Close(); err1 == nil {
			err1 = err
		}
		w.enc = nil
	}
	if w.f != nil {
		if err := w.f.Close(); err1 == nil {
			err1 = err
		}
		w.f = nil
	}
	return err1
}

// ReadJSONL decodes every line of a (possibly zstd-compressed) JSONL file.
func ReadJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
	}
	var out []json.RawMessage
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		out = append(out, append(json.RawMessage(nil), line...))
	}
	return out, sc.Err()
}
