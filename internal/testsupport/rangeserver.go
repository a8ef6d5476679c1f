// Package testsupport provides an httptest-based range-capable file server
// and an in-memory Sink for this module's own tests.
package testsupport

import (
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

// Options configures NewMockServer.
type Options struct {
	FileSize   int
	RandomData bool
	Latency    time.Duration
	NoRanges   bool
	Handler    http.HandlerFunc
}

// Option mutates an Options value.
type Option func(*Options)

// WithFileSize sets the served payload size.
func WithFileSize(n int) Option { return func(o *Options) { o.FileSize = n } }

// WithRandomData fills the payload with deterministic pseudo-random bytes
// instead of zeros, so resumed downloads can be verified byte-for-byte.
func WithRandomData(b bool) Option { return func(o *Options) { o.RandomData = b } }

// WithLatency adds a fixed delay before every response, for exercising
// timeouts and cancellation.
func WithLatency(d time.Duration) Option { return func(o *Options) { o.Latency = d } }

// WithNoRanges makes the server omit Accept-Ranges and ignore Range
// headers, simulating a server with no byte-range support.
func WithNoRanges() Option { return func(o *Options) { o.NoRanges = true } }

// WithHandler overrides the default range-serving handler entirely.
func WithHandler(h http.HandlerFunc) Option { return func(o *Options) { o.Handler = h } }

// Server wraps an httptest.Server with the payload it serves.
type Server struct {
	*httptest.Server
	Data []byte
}

// NewMockServer starts a range-capable httptest server serving Options.FileSize
// bytes, torn down automatically via t.Cleanup.
func NewMockServer(t *testing.T, opts ...Option) *Server {
	t.Helper()

	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	data := make([]byte, o.FileSize)
	if o.RandomData {
		rand.New(rand.NewSource(1)).Read(data)
	}

	handler := o.Handler
	if handler == nil {
		handler = defaultHandler(data, o)
	}

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Server{Server: srv, Data: data}
}

func defaultHandler(data []byte, o Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if o.Latency > 0 {
			time.Sleep(o.Latency)
		}
		if !o.NoRanges {
			w.Header().Set("Accept-Ranges", "bytes")
		}

		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", strconv.Itoa(len(data)))
			w.WriteHeader(http.StatusOK)
			return
		}

		rangeHeader := r.Header.Get("Range")
		if o.NoRanges || rangeHeader == "" {
			w.Header().Set("Content-Length", strconv.Itoa(len(data)))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(data)
			return
		}

		from, to, ok := parseRangeHeader(rangeHeader, len(data))
		if !ok {
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return
		}

		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", from, to, len(data)))
		w.Header().Set("Content-Length", strconv.Itoa(int(to-from+1)))
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write(data[from : to+1])
	}
}

// parseRangeHeader parses a "bytes=from-to" request header against size.
func parseRangeHeader(h string, size int) (from, to int64, ok bool) {
	h = strings.TrimPrefix(h, "bytes=")
	parts := strings.SplitN(h, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}

	f, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || f < 0 {
		return 0, 0, false
	}

	t := int64(size) - 1
	if parts[1] != "" {
		t, err = strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return 0, 0, false
		}
	}
	if t >= int64(size) {
		t = int64(size) - 1
	}
	if f > t {
		return 0, 0, false
	}
	return f, t, true
}
