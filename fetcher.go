package rangedl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brindlecore/rangedl/internal/httpsniff"
)

// fetchRange downloads one range end to end, retrying on non-cancellation
// failures with exponential backoff. idx tags the range for TransferError
// and the RangeDownloaded event.
func (d *Downloader) fetchRange(ctx context.Context, idx int, r *DownloadRange) error {
	attempts := d.cfg.MaxRetryCount + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := d.cfg.RetryBaseDelay << (attempt - 1)
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}

		lastErr = d.fetchRangeOnce(ctx, idx, r)
		if lastErr == nil {
			return nil
		}
		if isCancellation(lastErr) || ctx.Err() != nil {
			return lastErr
		}
	}
	return newTransferError(idx, r.From, r.To, lastErr)
}

// fetchRangeOnce issues a single GET covering the remaining, unwritten part
// of r and streams the body into the sink via d.sinkWriter.
func (d *Downloader) fetchRangeOnce(ctx context.Context, idx int, r *DownloadRange) error {
	from := r.From + r.CurrentOffset()
	to := r.To

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.cfg.URI, nil)
	if err != nil {
		return err
	}
	if d.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", d.cfg.UserAgent)
	}

	if d.resumingSupported.Load() {
		req.Header.Set("Range", httpsniff.RangeHeader(from, to))
	} else if r.From != 0 || r.CurrentOffset() != 0 {
		return ErrResumeUnsupportedMidStream
	}

	resp, err := d.cfg.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("rangedl: unexpected status %d fetching range", resp.StatusCode)
	}

	buf := make([]byte, d.cfg.WriteBufferSize)
	offset := from

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if werr := d.sinkWriter.writeAt(offset, buf[:n], r); werr != nil {
				return werr
			}
			offset += int64(n)
			d.speedMeter.Record(int64(n))
			d.events.emitDataReceived(n)
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return readErr
		}
	}

	if offset-1 < r.To {
		return io.ErrUnexpectedEOF
	}

	d.sinkWriter.markDone(r)
	d.events.emitRangeDownloaded(idx, r.From, r.To)
	return nil
}
