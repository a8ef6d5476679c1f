package rangedl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestDownloader(t *testing.T, maxPartCount int) *Downloader {
	t.Helper()
	cfg := DefaultConfig("http://example.invalid/unused")
	cfg.MaxPartCount = maxPartCount
	cfg.MaxRetryCount = 0
	d, err := New(cfg)
	require.NoError(t, err)
	return d
}

// TestSchedulerFirstErrorWins exercises one genuinely failing range (a
// non-zero From on a downloader that never found byte-range support, so the
// fetch fails with ErrResumeUnsupportedMidStream before any request is made)
// alongside one pre-marked-done range, and checks the
// scheduler surfaces a real, non-cancellation error rather than silently
// clearing it once the done range is skipped.
func TestSchedulerFirstErrorWins(t *testing.T) {
	d := newTestDownloader(t, 2)

	ranges := []*DownloadRange{
		newDownloadRange(0, 9, 10, true),
		newDownloadRange(10, 19, 0, false),
	}

	err := d.runScheduler(context.Background(), ranges)
	require.Error(t, err)
	require.False(t, isCancellation(err))
}

func TestSchedulerSkipsCompletedRanges(t *testing.T) {
	d := newTestDownloader(t, 4)

	ranges := []*DownloadRange{
		newDownloadRange(0, 9, 10, true),
		newDownloadRange(10, 19, 10, true),
	}

	err := d.runScheduler(context.Background(), ranges)
	require.NoError(t, err)
}

func TestSchedulerEmptyRangesIsNoop(t *testing.T) {
	d := newTestDownloader(t, 4)

	err := d.runScheduler(context.Background(), nil)
	require.NoError(t, err)
}

func TestSchedulerRespectsParentCancellation(t *testing.T) {
	d := newTestDownloader(t, 1)

	ranges := []*DownloadRange{
		newDownloadRange(0, 9, 0, false),
		newDownloadRange(10, 19, 0, false),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.runScheduler(ctx, ranges)
	require.Error(t, err)
	require.True(t, isCancellation(err))
}
