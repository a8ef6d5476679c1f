package rangedl

import (
	"context"
	"sync"
)

// runScheduler fans out over ranges with up to cfg.MaxPartCount concurrent
// RangeFetchers. The first non-cancellation failure cancels the
// shared context so every sibling abandons its current read promptly; that
// first failure is the one returned. A pure parent cancellation (ctx already
// done before any failure) is reported as ctx.Err() instead.
func (d *Downloader) runScheduler(ctx context.Context, ranges []*DownloadRange) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type job struct {
		idx int
		r   *DownloadRange
	}
	jobs := make(chan job)

	var wg sync.WaitGroup
	var once sync.Once
	var rootErr error

	recordErr := func(err error) {
		if err == nil || isCancellation(err) {
			return
		}
		once.Do(func() {
			rootErr = err
			cancel()
		})
	}

	workers := d.cfg.MaxPartCount
	if workers > len(ranges) {
		workers = len(ranges)
	}
	if workers < 1 {
		workers = 1
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					continue
				}
				if err := d.fetchRange(ctx, j.idx, j.r); err != nil {
					recordErr(err)
				}
			}
		}()
	}

feed:
	for idx, r := range ranges {
		if r.IsDone() {
			continue
		}
		select {
		case jobs <- job{idx: idx, r: r}:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)

	wg.Wait()

	if rootErr != nil {
		return rootErr
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return nil
}
