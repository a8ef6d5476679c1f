package rangedl

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/brindlecore/rangedl/internal/httpsniff"
	"github.com/brindlecore/rangedl/internal/rangeplan"
	"github.com/brindlecore/rangedl/internal/speedmeter"
)

// future is a join-able completion signal shared by concurrent callers of
// Init or Start: the first caller does the work, later callers joining an
// in-flight call simply wait on the same future.
type future struct {
	done chan struct{}
	err  error
}

func newFuture() *future { return &future{done: make(chan struct{})} }

func (f *future) finish(err error) {
	f.err = err
	close(f.done)
}

func (f *future) wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// mergeCancel derives a context cancelled when either parent or extra is
// done, so a caller-supplied context and the Downloader's own cancellation
// signal both reach the in-flight work.
func mergeCancel(parent, extra context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(extra, cancel)
	return ctx, func() { stop(); cancel() }
}

// Downloader is the lifecycle controller: the state machine that owns
// initialization, the concurrent transfer, and cancellation. Zero value is
// not usable; construct with New.
type Downloader struct {
	ID string

	cfg    Config
	logger Logger
	events events

	mu           sync.Mutex
	state        State
	starting     bool
	initFuture   *future
	startFuture  *future
	stoppingDone chan struct{}
	lastErr      error
	totalSize    int64
	ranges       []*DownloadRange
	workCtx      context.Context
	workCancel   context.CancelFunc

	resumingSupported atomic.Bool

	sinkWriter *sinkWriter
	speedMeter *speedmeter.Meter
}

// New validates cfg and constructs a Downloader in state None (or Stopped,
// if cfg.IsStopped). It performs no network I/O; call Init or Start for that.
func New(cfg Config) (*Downloader, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Client == nil {
		cfg.Client = defaultClient()
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = DefaultConfig(cfg.URI).RetryBaseDelay
	}
	if cfg.SpeedWindow <= 0 {
		cfg.SpeedWindow = speedmeter.DefaultWindow
	}

	d := &Downloader{
		ID:         uuid.NewString(),
		cfg:        cfg,
		logger:     resolveLogger(cfg.Logger),
		speedMeter: speedmeter.New(cfg.SpeedWindow),
	}
	d.workCtx, d.workCancel = context.WithCancel(context.Background())

	if cfg.IsStopped {
		d.state = Stopped
	} else {
		d.state = None
	}

	d.sinkWriter = newSinkWriter(cfg.Sink, cfg.OpenSink, cfg.AutoDisposeSink, cfg.OnDataReceived)

	if len(cfg.DownloadedRanges) > 0 {
		ranges := make([]*DownloadRange, len(cfg.DownloadedRanges))
		var sum int64
		for i, rs := range cfg.DownloadedRanges {
			ranges[i] = newDownloadRange(rs.From, rs.To, rs.CurrentOffset, rs.IsDone)
			sum += rs.Width()
		}
		d.ranges = ranges
		d.totalSize = sum
	}

	return d, nil
}

// awaitNotStopping blocks callers arriving while a Stop is in flight until it
// settles, or until ctx is done.
func (d *Downloader) awaitNotStopping(ctx context.Context) {
	for {
		d.mu.Lock()
		if d.state != Stopping {
			d.mu.Unlock()
			return
		}
		done := d.stoppingDone
		d.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return
		}
	}
}

// Init performs the HEAD request, resolves total size and resume support,
// and builds (or validates) the range plan, transitioning None/Stopped/Error
// -> Initializing -> Initialized. Calling Init while already Initializing
// joins the in-flight call; calling it once Initialized/Downloading/Finished
// is a no-op success.
func (d *Downloader) Init(ctx context.Context) error {
	d.awaitNotStopping(ctx)

	d.mu.Lock()
	switch d.state {
	case Stopping:
		d.mu.Unlock()
		return ctx.Err()
	case Initializing:
		fut := d.initFuture
		d.mu.Unlock()
		return fut.wait(ctx)
	case Initialized, Downloading, Finished:
		d.mu.Unlock()
		return nil
	}

	fut := newFuture()
	d.initFuture = fut
	d.state = Initializing
	workCtx := d.workCtx
	d.mu.Unlock()
	d.events.emitStateChanged(Initializing)

	mergedCtx, cancelMerge := mergeCancel(workCtx, ctx)
	defer cancelMerge()

	err := d.doInit(mergedCtx)

	if err != nil {
		d.setLastError(err)
	} else {
		d.mu.Lock()
		d.state = Initialized
		d.mu.Unlock()
		d.events.emitStateChanged(Initialized)
	}

	fut.finish(err)
	return err
}

// doInit issues the HEAD request and establishes totalSize, resumingSupported
// and d.ranges.
func (d *Downloader) doInit(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, d.cfg.URI, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHeaderUnavailable, err)
	}
	if d.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", d.cfg.UserAgent)
	}

	resp, err := d.cfg.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrHeaderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HEAD returned status %d", ErrHeaderUnavailable, resp.StatusCode)
	}

	size, ok := httpsniff.ContentLength(resp.Header)
	if !ok {
		return ErrHeaderUnavailable
	}
	resuming := d.cfg.AllowResuming && httpsniff.AcceptsByteRanges(resp.Header)
	d.resumingSupported.Store(resuming)

	d.mu.Lock()
	d.totalSize = size

	var widthSum int64
	for _, r := range d.ranges {
		widthSum += r.Width()
	}
	if len(d.ranges) == 0 || widthSum != size {
		planned := rangeplan.Plan(size, d.cfg.PartSize, resuming)
		ranges := make([]*DownloadRange, len(planned))
		for i, p := range planned {
			ranges[i] = newDownloadRange(p.From, p.To, 0, false)
		}
		d.ranges = ranges
	}
	d.mu.Unlock()

	return nil
}

// Start ensures Init has completed, then drives the concurrent transfer to
// completion: Initialized -> Downloading -> Finished. If Stopping, Start
// awaits the in-flight Stop first. A concurrent Start arriving while one is
// already under way (whether still inside Init or already Downloading)
// joins the in-flight call; already-Finished is a no-op success.
func (d *Downloader) Start(ctx context.Context) error {
	d.awaitNotStopping(ctx)

	d.mu.Lock()
	switch d.state {
	case Stopping:
		d.mu.Unlock()
		return ctx.Err()
	case Downloading:
		fut := d.startFuture
		d.mu.Unlock()
		return fut.wait(ctx)
	case Finished:
		d.mu.Unlock()
		return nil
	}
	if d.starting {
		fut := d.startFuture
		d.mu.Unlock()
		return fut.wait(ctx)
	}
	fut := newFuture()
	d.startFuture = fut
	d.starting = true
	workCtx := d.workCtx
	d.mu.Unlock()

	// finish clears the claim before completing fut, so a later Start call
	// (e.g. after this one fails) sees starting==false rather than joining
	// an already-finished future forever.
	finish := func(err error) error {
		d.mu.Lock()
		d.starting = false
		d.mu.Unlock()
		fut.finish(err)
		return err
	}

	if err := d.Init(ctx); err != nil {
		return finish(err)
	}

	d.mu.Lock()
	if d.state != Initialized {
		err := d.lastErr
		d.mu.Unlock()
		return finish(err)
	}
	d.state = Downloading
	d.starting = false
	ranges := d.ranges
	d.mu.Unlock()
	d.events.emitStateChanged(Downloading)

	mergedCtx, cancelMerge := mergeCancel(workCtx, ctx)
	defer cancelMerge()

	if err := d.runScheduler(mergedCtx, ranges); err != nil {
		d.setLastError(err)
		fut.finish(err)
		return err
	}

	if err := d.sinkWriter.finalize(); err != nil {
		d.setLastError(err)
		fut.finish(err)
		return err
	}

	if d.cfg.OnBeforeFinish != nil {
		d.cfg.OnBeforeFinish()
	}

	d.mu.Lock()
	d.state = Finished
	d.mu.Unlock()
	d.events.emitStateChanged(Finished)

	fut.finish(nil)
	return nil
}

// Stop cancels any in-flight Init/Start, awaits both, and settles in Stopped.
// No-op if already Finished, Stopped, or Error.
func (d *Downloader) Stop() {
	d.mu.Lock()
	switch d.state {
	case Finished, Stopped, Error:
		d.mu.Unlock()
		return
	}
	initFut := d.initFuture
	startFut := d.startFuture
	d.state = Stopping
	d.stoppingDone = make(chan struct{})
	cancel := d.workCancel
	d.mu.Unlock()
	d.events.emitStateChanged(Stopping)

	cancel()

	if initFut != nil {
		_ = initFut.wait(context.Background())
	}
	if startFut != nil {
		_ = startFut.wait(context.Background())
	}

	d.mu.Lock()
	d.state = Stopped
	d.workCtx, d.workCancel = context.WithCancel(context.Background())
	done := d.stoppingDone
	d.mu.Unlock()
	close(done)
	d.events.emitStateChanged(Stopped)
}

// Dispose cancels any in-flight work and releases the sink. It does not wait
// for in-flight calls to settle; callers wanting that should Stop first.
func (d *Downloader) Dispose() {
	d.mu.Lock()
	cancel := d.workCancel
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	_ = d.sinkWriter.finalize()
}

// Flush flushes the sink without finalizing it.
func (d *Downloader) Flush() error {
	return d.sinkWriter.flush()
}

// setLastError finalizes the sink, then records the terminal state: a
// cancellation settles in Stopped without touching LastException; anything
// else is recorded as LastException before the transition to Error, so
// observers reading state from within the StateChanged handler already see
// it.
func (d *Downloader) setLastError(e error) {
	_ = d.sinkWriter.finalize()

	if isCancellation(e) {
		d.mu.Lock()
		d.state = Stopped
		d.mu.Unlock()
		d.events.emitStateChanged(Stopped)
		return
	}

	d.mu.Lock()
	d.lastErr = e
	d.state = Error
	d.mu.Unlock()
	d.events.emitStateChanged(Error)
}

// State reports the current lifecycle state.
func (d *Downloader) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// TotalSize reports the remote resource size discovered during Init. Before
// Init completes it reports the summed widths of Config.DownloadedRanges, or 0
// if none were given.
func (d *Downloader) TotalSize() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.totalSize
}

// CurrentSize sums committed bytes across all ranges.
func (d *Downloader) CurrentSize() int64 {
	d.mu.Lock()
	ranges := d.ranges
	d.mu.Unlock()

	var sum int64
	for _, r := range ranges {
		sum += r.CurrentOffset()
	}
	return sum
}

// BytesPerSecond reports the current transfer rate over the configured
// speed window.
func (d *Downloader) BytesPerSecond() float64 {
	return d.speedMeter.BytesPerSecond()
}

// DownloadedRanges snapshots per-range progress, suitable for persisting and
// passing back in as Config.DownloadedRanges to resume later.
func (d *Downloader) DownloadedRanges() []RangeState {
	d.mu.Lock()
	ranges := d.ranges
	d.mu.Unlock()

	out := make([]RangeState, len(ranges))
	for i, r := range ranges {
		out[i] = r.snapshot()
	}
	return out
}

// LastException reports the error recorded on the most recent transition to
// Error, or nil.
func (d *Downloader) LastException() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

// IsResumingSupported reports whether Init found the server capable of byte
// ranges (and AllowResuming was set). Valid only after Init completes.
func (d *Downloader) IsResumingSupported() bool {
	return d.resumingSupported.Load()
}

// OnStateChanged registers a handler invoked after every state transition.
func (d *Downloader) OnStateChanged(h func(StateChangedEvent)) { d.events.OnStateChanged(h) }

// OnDataReceived registers a handler invoked after every committed write.
func (d *Downloader) OnDataReceived(h func(DataReceivedEvent)) { d.events.OnDataReceived(h) }

// OnRangeDownloaded registers a handler invoked when a range completes
// cleanly.
func (d *Downloader) OnRangeDownloaded(h func(RangeDownloadedEvent)) { d.events.OnRangeDownloaded(h) }
