package rangedl

import (
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// Sink is the random-access writable byte stream the engine materializes the
// resource into: io.Writer + io.Seeker supply write/seek/position, Flush and
// Close supply flush/dispose.
type Sink interface {
	io.Writer
	io.Seeker
	Flush() error
	Close() error
}

// Logger is the minimal capability hook callers may supply for debug lines.
// A nil Logger is valid; the engine falls back to an env-gated stderr logger
// (see stderrLogger in log.go). The Downloader keeps the resolved Logger but
// does not write any lines through it.
type Logger interface {
	Debugf(format string, args ...any)
}

// RangeState is an immutable snapshot of a DownloadRange, used both for
// Config.DownloadedRanges (resume input) and Downloader.DownloadedRanges()
// (progress output).
type RangeState struct {
	From, To      int64
	CurrentOffset int64
	IsDone        bool
}

// Width reports the number of bytes covered by this range, inclusive.
func (r RangeState) Width() int64 { return r.To - r.From + 1 }

// DownloadRange is a contiguous byte window of the remote resource being
// reconstructed locally. CurrentOffset and IsDone are mutated only by the
// owning RangeFetcher, always under the SinkWriter's mutex; they may be read
// concurrently for progress reporting, where a torn read is harmless.
type DownloadRange struct {
	From, To int64

	currentOffset atomic.Int64
	isDone        atomic.Bool
}

// newDownloadRange builds a DownloadRange, optionally pre-seeded with resume
// progress.
func newDownloadRange(from, to, currentOffset int64, isDone bool) *DownloadRange {
	r := &DownloadRange{From: from, To: to}
	r.currentOffset.Store(currentOffset)
	r.isDone.Store(isDone)
	return r
}

// Width reports the number of bytes covered by this range, inclusive.
func (r *DownloadRange) Width() int64 { return r.To - r.From + 1 }

// CurrentOffset reports bytes already committed to the sink for this range,
// measured from From.
func (r *DownloadRange) CurrentOffset() int64 { return r.currentOffset.Load() }

// IsDone reports whether the range has been fully, cleanly downloaded.
func (r *DownloadRange) IsDone() bool { return r.isDone.Load() }

// snapshot captures the current (CurrentOffset, IsDone) as a plain value.
func (r *DownloadRange) snapshot() RangeState {
	return RangeState{
		From:          r.From,
		To:            r.To,
		CurrentOffset: r.CurrentOffset(),
		IsDone:        r.IsDone(),
	}
}

// Config holds the values fixed at Downloader construction. Use
// DefaultConfig to obtain sane defaults, then override only what you need.
type Config struct {
	// URI is the remote resource locator.
	URI string

	// Sink is an optional caller-supplied seekable writable byte stream. If
	// nil, OpenSink is invoked lazily on first write.
	Sink Sink

	// OpenSink produces a Sink when Sink is nil. Defaults to returning
	// ErrSinkUnavailable; callers wanting file-backed output should set this
	// to, e.g., func() (Sink, error) { return NewFileSink(path) }.
	OpenSink func() (Sink, error)

	// PartSize is the RangePlanner's maximum range width, in bytes. Must be
	// >= MinPartSize.
	PartSize int64

	// MaxPartCount bounds how many RangeFetchers run concurrently.
	MaxPartCount int

	// MaxRetryCount is the per-range retry budget; attempts = MaxRetryCount+1.
	MaxRetryCount int

	// WriteBufferSize is the transfer buffer size in bytes.
	WriteBufferSize int

	// AllowResuming, if false, never requests byte ranges regardless of
	// server capability.
	AllowResuming bool

	// AutoDisposeSink, if true, releases the sink on finalize/Dispose.
	AutoDisposeSink bool

	// DownloadedRanges optionally pre-seeds ranges for resume. If the sum of
	// their widths doesn't match the newly discovered total size, the set is
	// discarded and rebuilt.
	DownloadedRanges []RangeState

	// IsStopped, if true, makes the Downloader start in Stopped rather than
	// None.
	IsStopped bool

	// Client is the *http.Client used for the HEAD and all GETs. Defaults to
	// an SSRF-hardened client (see client.go) if nil.
	Client *http.Client

	// UserAgent is sent on every request.
	UserAgent string

	// RetryBaseDelay is the base of the exponential backoff between retry
	// attempts: the first retry waits RetryBaseDelay and each later retry
	// waits twice as long as the one before.
	RetryBaseDelay time.Duration

	// SpeedWindow overrides SpeedMeter's sample retention window. Zero means
	// the 5s default.
	SpeedWindow time.Duration

	// Logger is the Logger hook kept by the Downloader. Nil uses the
	// env-gated default.
	Logger Logger

	// OnBeforeFinish is called after all ranges complete and the sink is
	// finalized, before the transition to Finished.
	OnBeforeFinish func()

	// OnDataReceived is called after each committed write, in addition to
	// the DataReceived event.
	OnDataReceived func(n int)
}

// MinPartSize is the smallest PartSize New will accept.
const MinPartSize = 10_000

// DefaultConfig returns a Config for uri with every tunable set to a
// reasonable default. Callers typically mutate fields before calling New.
func DefaultConfig(uri string) Config {
	return Config{
		URI:             uri,
		PartSize:        4 * 1024 * 1024,
		MaxPartCount:    8,
		MaxRetryCount:   3,
		WriteBufferSize: 64 * 1024,
		AllowResuming:   true,
		AutoDisposeSink: true,
		UserAgent:       "rangedl/1.0",
		RetryBaseDelay:  100 * time.Millisecond,
		SpeedWindow:     5 * time.Second,
	}
}

func (c Config) validate() error {
	if c.URI == "" {
		return newConfigError("URI must not be empty")
	}
	if c.PartSize < MinPartSize {
		return newConfigError("PartSize must be >= MinPartSize (10000 bytes)")
	}
	if c.MaxPartCount < 1 {
		return newConfigError("MaxPartCount must be >= 1")
	}
	if c.WriteBufferSize <= 0 {
		return newConfigError("WriteBufferSize must be > 0")
	}
	if c.MaxRetryCount < 0 {
		return newConfigError("MaxRetryCount must be >= 0")
	}
	return nil
}
