package rangedl

import (
	"io"
	"sync"
)

// sinkWriter serializes positioned writes into the shared sink and keeps
// each DownloadRange's CurrentOffset coherent with bytes actually committed.
// The mutex is the single point of truth: writeAt only returns once both the
// physical write and the offset update have landed together.
type sinkWriter struct {
	mu          sync.Mutex
	sink        Sink
	openSink    func() (Sink, error)
	autoDispose bool
	onData      func(int)
}

func newSinkWriter(sink Sink, openSink func() (Sink, error), autoDispose bool, onData func(int)) *sinkWriter {
	return &sinkWriter{sink: sink, openSink: openSink, autoDispose: autoDispose, onData: onData}
}

// getOrOpenLocked returns the sink, lazily opening it via openSink if nil.
// Callers must hold mu.
func (w *sinkWriter) getOrOpenLocked() (Sink, error) {
	if w.sink != nil {
		return w.sink, nil
	}
	if w.openSink == nil {
		return nil, ErrSinkUnavailable
	}
	s, err := w.openSink()
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrSinkUnavailable
	}
	w.sink = s
	return s, nil
}

// writeAt seeks to offset, writes all of buf, and — in the same critical
// section — updates r's CurrentOffset and invokes onData. This ordering is
// what makes resume safe: CurrentOffset never outruns bytes on disk.
func (w *sinkWriter) writeAt(offset int64, buf []byte, r *DownloadRange) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	sink, err := w.getOrOpenLocked()
	if err != nil {
		return err
	}

	if _, err := sink.Seek(offset, io.SeekStart); err != nil {
		return err
	}

	written := 0
	for written < len(buf) {
		n, err := sink.Write(buf[written:])
		written += n
		if err != nil {
			return err
		}
	}

	r.currentOffset.Store(offset + int64(written) - r.From)
	if w.onData != nil {
		w.onData(written)
	}
	return nil
}

// markDone flips r.IsDone under the same mutex writeAt uses, so a concurrent
// progress read never observes IsDone before the final bytes are committed.
func (w *sinkWriter) markDone(r *DownloadRange) {
	w.mu.Lock()
	defer w.mu.Unlock()
	r.isDone.Store(true)
}

// flush flushes the sink if one is open. Idempotent on an absent sink.
func (w *sinkWriter) flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sink == nil {
		return nil
	}
	return w.sink.Flush()
}

// finalize flushes and, if autoDispose, closes and releases the sink.
// Idempotent and safe to call again after Dispose.
func (w *sinkWriter) finalize() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sink == nil {
		return nil
	}

	flushErr := w.sink.Flush()
	if !w.autoDispose {
		return flushErr
	}

	closeErr := w.sink.Close()
	w.sink = nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
