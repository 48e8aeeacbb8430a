package bar

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/thecrazygm/hivebar/internal/widget"
)

// Writer publishes formatted bar lines to stdout or a FIFO. Its Publish
// method satisfies widget.Sink.
type Writer struct {
	log       *slog.Logger
	formatter Formatter
	fifoPath  string

	mu  sync.Mutex
	out io.WriteCloser
}

// NewWriter creates a bar writer. An empty fifoPath writes to stdout.
func NewWriter(log *slog.Logger, formatter Formatter, fifoPath string) *Writer {
	return &Writer{
		log:       log.With("component", "bar"),
		formatter: formatter,
		fifoPath:  fifoPath,
	}
}

// Publish formats and writes one line. Write failures are logged and the
// FIFO is reopened on the next publish.
func (w *Writer) Publish(outputs []widget.Output) {
	line, err := w.formatter.Format(outputs)
	if err != nil {
		w.log.Warn("failed to format bar line", "error", err)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	out, err := w.target()
	if err != nil {
		w.log.Warn("failed to open bar output", "error", err)
		return
	}
	if _, err := fmt.Fprintln(out, line); err != nil {
		w.log.Warn("failed to write bar line", "error", err)
		w.closeLocked()
	}
}

// Close releases the FIFO if one is open.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closeLocked()
	return nil
}

func (w *Writer) target() (io.Writer, error) {
	if w.fifoPath == "" {
		return os.Stdout, nil
	}
	if w.out != nil {
		return w.out, nil
	}
	f, err := os.OpenFile(w.fifoPath, os.O_WRONLY, 0)
	if err != nil {
		return nil, err
	}
	w.out = f
	return f, nil
}

func (w *Writer) closeLocked() {
	if w.out != nil {
		w.out.Close()
		w.out = nil
	}
}
